package engagement

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// LikeRepository stores like facts. (member_id, like_ref_id, like_group)
// is unique at the storage layer.
type LikeRepository interface {
	// Delete removes the fact and reports whether one existed.
	Delete(ctx context.Context, memberID, refID string, group Group) (bool, error)

	// Insert stores a new fact. A duplicate returns shared.ErrAlreadyExists.
	Insert(ctx context.Context, like *Like) error

	// Find returns the member's like on refID in any group, or ErrNotFound.
	Find(ctx context.Context, memberID, refID string) (*Like, error)
}

// ViewRepository stores view facts.
type ViewRepository interface {
	// InsertIfAbsent stores view unless a matching fact already exists under
	// scope. It reports whether a row was created.
	InsertIfAbsent(ctx context.Context, view *View, scope ViewScope) (bool, error)
}

// MeLikedFrom converts a like into the read-path flag.
func MeLikedFrom(l *Like) shared.MeLiked {
	return shared.MeLiked{MemberID: l.MemberID, LikeRefID: l.RefID, MyFavorite: true}
}
