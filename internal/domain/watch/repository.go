package watch

import (
	"context"
	"time"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// Sort keys accepted by watch list queries.
var AllowedSorts = []string{"createdAt", "updatedAt", "watchPrice", "watchViews", "watchLikes", "watchRank"}

// PriceRange is an inclusive price window.
type PriceRange struct {
	Start float64
	End   float64
}

// PeriodRange is an inclusive creation-time window.
type PeriodRange struct {
	Start time.Time
	End   time.Time
}

// Search narrows watch list queries. Empty fields impose no constraint.
type Search struct {
	// BrandID matches the owning member.
	BrandID   string
	DealerID  string
	Types     []Type
	Statuses  []Status
	Locations []Location
	Prices    *PriceRange
	Periods   *PeriodRange
	// Text matches the model name case-insensitively.
	Text string
}

// Update carries the owner-editable fields of a listing.
type Update struct {
	Type           *Type
	Location       *Location
	Address        *string
	ModelName      *string
	Brand          *string
	Color          *string
	LimitedEdition *bool
	Price          *float64
	Images         []string
	Desc           *string
}

// Repository defines persistence for watches.
type Repository interface {
	Create(ctx context.Context, w *Watch) error

	// GetByID returns shared.ErrNotFound unless the watch has one of statuses.
	GetByID(ctx context.Context, id string, statuses ...Status) (*Watch, error)

	// Save writes the mutable fields, status and lifecycle timestamps of w.
	Save(ctx context.Context, w *Watch) error

	// Purge hard-deletes a DELETE-status watch.
	Purge(ctx context.Context, id string) error

	AdjustCounter(ctx context.Context, id string, counter Counter, delta int) (*Watch, error)

	List(ctx context.Context, s Search, p shared.Paging, viewerID string) (shared.Page[*Watch], error)

	// ListLikedBy returns watches the member liked, newest like first.
	ListLikedBy(ctx context.Context, memberID string, p shared.Paging) (shared.Page[*Watch], error)

	// ListViewedBy returns watches the member viewed, newest view first.
	ListViewedBy(ctx context.Context, memberID string, p shared.Paging) (shared.Page[*Watch], error)

	GetByIDs(ctx context.Context, ids []string) ([]*Watch, error)
}

// RankRepository is used by the daily rank batch.
type RankRepository interface {
	// ResetRanks sets watchRank to 0 on every ACTIVE watch.
	ResetRanks(ctx context.Context) (int64, error)

	// ListUnranked returns ACTIVE watches whose rank is 0.
	ListUnranked(ctx context.Context) ([]*Watch, error)

	SetRank(ctx context.Context, id string, rank int) error
}
