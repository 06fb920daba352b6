package query

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// CommentQueries serves comment and notification lists.
type CommentQueries struct {
	deps Deps
}

// NewCommentQueries creates comment queries.
func NewCommentQueries(deps Deps) *CommentQueries {
	return &CommentQueries{deps: deps}
}

// ByRef lists ACTIVE comments of refID. No comments is an empty page.
func (q *CommentQueries) ByRef(ctx context.Context, refID string, p shared.Paging) (shared.Page[*comment.Comment], error) {
	if err := shared.ValidateID("comment", "commentRefId", refID); err != nil {
		return shared.Page[*comment.Comment]{}, err
	}
	p, err := q.deps.paging("comment", p, comment.AllowedSorts)
	if err != nil {
		return shared.Page[*comment.Comment]{}, err
	}
	return q.deps.Comments.ListByRef(ctx, refID, p)
}

// Notifications lists the receiver's notifications, newest first.
func (q *CommentQueries) Notifications(ctx context.Context, receiverID string, p shared.Paging) (shared.Page[*notification.Notification], error) {
	if err := shared.ValidateID("notification", "receiverId", receiverID); err != nil {
		return shared.Page[*notification.Notification]{}, err
	}
	p, err := q.deps.paging("notification", p, []string{shared.DefaultSort})
	if err != nil {
		return shared.Page[*notification.Notification]{}, err
	}
	return q.deps.Notifications.ListByReceiver(ctx, receiverID, p)
}
