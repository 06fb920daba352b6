// Package comment contains comments attached to watches, articles and members.
package comment

import (
	"context"
	"time"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// Status of a comment.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusDelete Status = "DELETE"
)

// IsValid returns true if the status is known.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusDelete
}

// Comment belongs to the entity RefID in Group.
type Comment struct {
	ID        string           `json:"_id"`
	Status    Status           `json:"commentStatus"`
	Group     engagement.Group `json:"commentGroup"`
	Content   string           `json:"commentContent"`
	RefID     string           `json:"commentRefId"`
	MemberID  string           `json:"memberId"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	MemberData *member.Profile `json:"memberData,omitempty"`
}

// Sort keys accepted by comment list queries.
var AllowedSorts = []string{"createdAt"}

// Update carries the owner-editable fields of a comment.
type Update struct {
	Status  *Status
	Content *string
}

// Repository defines persistence for comments.
type Repository interface {
	Create(ctx context.Context, c *Comment) error

	// GetByID returns shared.ErrNotFound unless the comment has one of statuses.
	GetByID(ctx context.Context, id string, statuses ...Status) (*Comment, error)

	// Update applies upd to an ACTIVE comment owned by ownerID.
	Update(ctx context.Context, id, ownerID string, upd Update) (*Comment, error)

	// Delete hard-deletes a comment in status DELETE.
	Delete(ctx context.Context, id string) (*Comment, error)

	// ListByRef returns ACTIVE comments for refID.
	ListByRef(ctx context.Context, refID string, p shared.Paging) (shared.Page[*Comment], error)
}
