package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// IsValid reports whether d is ASC or DESC.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// SQL returns the SQL keyword, falling back to DESC.
func (d Direction) SQL() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// DefaultSort is the sort key applied when a list request names none.
const DefaultSort = "createdAt"

// MaxPage bounds Page so that Offset stays far from int overflow.
const MaxPage = 100_000

// Paging holds offset pagination and sort options for list queries.
// Page and Limit are 1-based.
type Paging struct {
	Page      int
	Limit     int
	Sort      string
	Direction Direction
}

// Offset returns the number of rows to skip.
func (p Paging) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Normalize fills the default sort and direction.
func (p Paging) Normalize() Paging {
	if p.Sort == "" {
		p.Sort = DefaultSort
	}
	if p.Direction == "" {
		p.Direction = Desc
	}
	p.Direction = Direction(strings.ToUpper(string(p.Direction)))
	return p
}

// Validate checks page bounds and the sort key against allowed.
// maxLimit <= 0 disables the upper bound.
func (p Paging) Validate(domain string, allowed []string, maxLimit int) error {
	if p.Page < 1 {
		return Validation(domain, "List", "page must be at least 1")
	}
	if p.Page > MaxPage {
		return Validation(domain, "List", fmt.Sprintf("page must not exceed %d", MaxPage))
	}
	if p.Limit < 1 {
		return Validation(domain, "List", "limit must be at least 1")
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		return Validation(domain, "List", fmt.Sprintf("limit must not exceed %d", maxLimit))
	}
	if !p.Direction.IsValid() {
		return Validation(domain, "List", "direction must be one of [ASC DESC]")
	}
	for _, s := range allowed {
		if s == p.Sort {
			return nil
		}
	}
	return Validation(domain, "List", fmt.Sprintf("sort must be one of %v", allowed))
}

// Page is one window of a list query plus the total number of matches.
type Page[T any] struct {
	List  []T `json:"list"`
	Total int `json:"total"`
}

// EmptyPage returns a page with a non-nil empty list.
func EmptyPage[T any]() Page[T] {
	return Page[T]{List: []T{}, Total: 0}
}

// NewID generates an entity identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a well-formed identifier.
func ValidateID(domain, field, id string) error {
	if id == "" {
		return Validation(domain, "Validate", field+" is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return NewDomainError(domain, "Validate", ErrInvalidID, field+" is not a valid id")
	}
	return nil
}
