package article

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// Sort keys accepted by article list queries.
var AllowedSorts = []string{"createdAt", "updatedAt", "articleCategory", "articleLikes", "articleViews"}

// Search narrows article list queries. Empty fields impose no constraint.
type Search struct {
	Categories []Category
	Statuses   []Status
	MemberID   string
	// Text matches the title case-insensitively.
	Text string
}

// Update carries the editable fields of an article.
type Update struct {
	Status  *Status
	Title   *string
	Content *string
	Image   *string
}

// Repository defines persistence for board articles.
type Repository interface {
	Create(ctx context.Context, a *Article) error

	// GetByID returns shared.ErrNotFound unless the article has one of statuses.
	GetByID(ctx context.Context, id string, statuses ...Status) (*Article, error)

	// Update applies upd when the article matches id, owner (empty = any) and
	// one of statuses.
	Update(ctx context.Context, id, ownerID string, upd Update, statuses ...Status) (*Article, error)

	// Delete hard-deletes the article when it matches id, owner (empty = any)
	// and one of statuses, returning the removed row.
	Delete(ctx context.Context, id, ownerID string, statuses ...Status) (*Article, error)

	AdjustCounter(ctx context.Context, id string, counter Counter, delta int) (*Article, error)

	List(ctx context.Context, s Search, p shared.Paging, viewerID string) (shared.Page[*Article], error)
}
