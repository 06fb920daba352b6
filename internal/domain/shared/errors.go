// Package shared holds the error kinds, paging types and client messages
// shared by every Timory Hub domain package.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrConflict      = errors.New("conflict")

	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")

	ErrStateTransition = errors.New("invalid state transition")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrStorage        = errors.New("storage failure")
	ErrPartialFailure = errors.New("operation partially applied")
)

// User-facing messages. Validation and conflict errors carry their own
// reason, the rest are reported with one of these generic texts.
const (
	MsgNoDataFound        = "No data is found!"
	MsgCreateFailed       = "Create is failed!"
	MsgUpdateFailed       = "Update is failed!"
	MsgRemoveFailed       = "Remove is failed!"
	MsgNotAllowed         = "Not allowed request!"
	MsgNotAuthenticated   = "You are not authenticated, log in first!"
	MsgPartiallyApplied   = "Operation partially applied, try again later!"
	MsgSomethingWentWrong = "Something went wrong!"
)

// DomainError carries the kind, the failing operation and the client message.
type DomainError struct {
	Domain  string // e.g., "watch", "article", "like"
	Op      string // Operation that failed, e.g., "Create", "Toggle"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the wrapped cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError keeps err as the cause.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validation builds a validation error whose message is shown to the client.
func Validation(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrValidation, message)
}

// NotFound builds a not-found error with the generic client message.
func NotFound(domain, op string) *DomainError {
	return NewDomainError(domain, op, ErrNotFound, MsgNoDataFound)
}

// Storage wraps an infrastructure failure.
func Storage(domain, op string, err error) *DomainError {
	return WrapError(domain, op, ErrStorage, "storage failure", err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists also matches ErrConflict.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrConflict)
}

// IsValidation covers malformed ids, bad input and illegal transitions.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrStateTransition)
}

// IsForbidden matches both auth kinds.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized)
}

// IsPartialFailure reports a fact mutation whose follow-up could not be confirmed.
func IsPartialFailure(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}

// ClientMessage returns the text safe to show to API clients.
func ClientMessage(err error) string {
	var de *DomainError
	switch {
	case IsPartialFailure(err):
		return MsgPartiallyApplied
	case errors.Is(err, ErrUnauthorized):
		return MsgNotAuthenticated
	case errors.Is(err, ErrForbidden):
		return MsgNotAllowed
	case IsValidation(err), IsAlreadyExists(err):
		if errors.As(err, &de) && de.Message != "" {
			return de.Message
		}
		return err.Error()
	case IsNotFound(err):
		return MsgNoDataFound
	default:
		return MsgSomethingWentWrong
	}
}
