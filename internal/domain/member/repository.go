package member

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// Sort keys accepted by member list queries.
var AllowedSorts = []string{"createdAt", "updatedAt", "memberLikes", "memberViews", "memberRank"}

// Filter narrows member list queries. Empty fields impose no constraint.
type Filter struct {
	Types    []Type
	Statuses []Status
	// Text matches the nick case-insensitively.
	Text string
}

// ProfileUpdate carries the fields a member may change on their own profile.
type ProfileUpdate struct {
	Nick     *string
	FullName *string
	Image    *string
	Address  *string
	Desc     *string
	Phone    *string
}

// IsEmpty reports an update without fields.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Nick == nil && u.FullName == nil && u.Image == nil &&
		u.Address == nil && u.Desc == nil && u.Phone == nil
}

// AdminUpdate carries fields only an admin may change.
type AdminUpdate struct {
	ProfileUpdate
	Type   *Type
	Status *Status
}

// Repository defines persistence for members.
type Repository interface {
	Create(ctx context.Context, m *Member) error

	// GetByID returns shared.ErrNotFound unless the member has one of statuses.
	// No statuses means any status.
	GetByID(ctx context.Context, id string, statuses ...Status) (*Member, error)

	// UpdateProfile applies upd to an ACTIVE member.
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Member, error)

	UpdateByAdmin(ctx context.Context, id string, upd AdminUpdate) (*Member, error)

	// AdjustCounter atomically adds delta to counter and returns the updated row.
	AdjustCounter(ctx context.Context, id string, counter Counter, delta int) (*Member, error)

	List(ctx context.Context, f Filter, p shared.Paging, viewerID string) (shared.Page[*Member], error)

	// FilterDealers returns the subset of ids that are existing DEALER members.
	FilterDealers(ctx context.Context, ids []string) ([]string, error)

	GetByIDs(ctx context.Context, ids []string) ([]*Member, error)
}

// RankRepository is used by the daily rank batch.
type RankRepository interface {
	// ResetDealerRanks sets memberRank to 0 on every ACTIVE dealer.
	ResetDealerRanks(ctx context.Context) (int64, error)

	// ListUnrankedDealers returns ACTIVE dealers whose rank is 0.
	ListUnrankedDealers(ctx context.Context) ([]*Member, error)

	SetRank(ctx context.Context, id string, rank int) error
}
