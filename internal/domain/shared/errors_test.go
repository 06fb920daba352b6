package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("article", "Create", ErrValidation, "Allowed categories: [FREE RECOMMEND NEWS]")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "article.Create: Allowed categories: [FREE RECOMMEND NEWS]", err.Error())
}

func TestWrapError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError("like", "Toggle", ErrStorage, "storage failure", cause)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", NotFound("watch", "Get"))))
	assert.True(t, IsAlreadyExists(NewDomainError("like", "Toggle", ErrConflict, MsgCreateFailed)))
	assert.True(t, IsValidation(NewDomainError("watch", "Update", ErrStateTransition, "SOLD is final")))
	assert.True(t, IsForbidden(NewDomainError("comment", "Update", ErrForbidden, MsgNotAllowed)))
	assert.True(t, IsPartialFailure(WrapError("uow", "Commit", ErrPartialFailure, "commit", errors.New("eof"))))
}

func TestClientMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation keeps reason", Validation("article", "Create", "Allowed categories: [FREE]"), "Allowed categories: [FREE]"},
		{"conflict keeps reason", NewDomainError("like", "Toggle", ErrConflict, MsgCreateFailed), MsgCreateFailed},
		{"not found is generic", WrapError("watch", "Get", ErrNotFound, "row missing for id 42", errors.New("no rows")), MsgNoDataFound},
		{"storage is generic", Storage("member", "Get", errors.New("dial tcp: refused")), MsgSomethingWentWrong},
		{"partial failure is distinct", WrapError("uow", "Commit", ErrPartialFailure, "commit", errors.New("eof")), MsgPartiallyApplied},
		{"forbidden", NewDomainError("comment", "Update", ErrForbidden, "owner mismatch"), MsgNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientMessage(tt.err))
		})
	}
}
