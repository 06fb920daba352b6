// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// DefaultTopSize is used when a top-list request names no size.
const DefaultTopSize = 10

// TopLists reads the cached rank boards.
type TopLists interface {
	TopIDs(ctx context.Context, board string, n int) ([]string, error)
}

// Deps are the read-side collaborators.
type Deps struct {
	Members       member.Repository
	Watches       watch.Repository
	Articles      article.Repository
	Comments      comment.Repository
	Notifications notification.Repository
	// TopLists may be nil; top lists then always come from the database.
	TopLists TopLists
	// MaxLimit caps the page size; 0 disables the cap.
	MaxLimit int
	Logger   zerolog.Logger
}

// paging normalizes p and checks it against the entity's sort allow-list.
func (d Deps) paging(domain string, p shared.Paging, allowed []string) (shared.Paging, error) {
	p = p.Normalize()
	if err := p.Validate(domain, allowed, d.MaxLimit); err != nil {
		return p, err
	}
	return p, nil
}

func validEnums[T interface{ IsValid() bool }](domain, field string, values []T) error {
	for _, v := range values {
		if !v.IsValid() {
			return shared.Validation(domain, "List", field+" contains an unknown value")
		}
	}
	return nil
}
