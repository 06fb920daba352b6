package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a notification repository over q.
func NewNotificationRepository(q Querier) *NotificationRepository {
	return &NotificationRepository{q: q}
}

const notificationColumns = `n.id, n.notification_type, n.notification_status, n.notification_group,
	n.notification_title, n.notification_desc, n.author_id, n.receiver_id,
	COALESCE(n.watch_id::text, ''), COALESCE(n.article_id::text, ''), n.created_at, n.updated_at`

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// InsertMany stores items with one batched round trip.
func (r *NotificationRepository) InsertMany(ctx context.Context, items []*notification.Notification) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([][]any, len(items))
	for i, n := range items {
		rows[i] = []any{
			n.ID, string(n.Type), string(n.Status), string(n.Group), n.Title, n.Desc,
			n.AuthorID, n.ReceiverID, nullableID(n.WatchID), nullableID(n.ArticleID),
			n.CreatedAt, n.UpdatedAt,
		}
	}

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(`
			INSERT INTO notifications (
				id, notification_type, notification_status, notification_group, notification_title,
				notification_desc, author_id, receiver_id, watch_id, article_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, args...)
	}

	res := r.q.SendBatch(ctx, batch)
	defer res.Close()
	for range rows {
		if _, err := res.Exec(); err != nil {
			return mapError("notification", "InsertMany", err)
		}
	}
	return nil
}

// ListByReceiver pages notifications addressed to receiverID, newest first.
func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverID string, p shared.Paging) (shared.Page[*notification.Notification], error) {
	l := &listQuery{
		from:     "notifications n",
		columns:  notificationColumns,
		sorts:    map[string]string{"createdAt": "n.created_at"},
		tiebreak: "n.id",
	}
	l.where.eq("n.receiver_id", receiverID)

	return fetchPage(ctx, r.q, "notification", l, p, "", func(rows pgx.Rows) (*notification.Notification, error) {
		n := &notification.Notification{}
		var liked bool
		err := rows.Scan(&n.ID, &n.Type, &n.Status, &n.Group, &n.Title, &n.Desc,
			&n.AuthorID, &n.ReceiverID, &n.WatchID, &n.ArticleID, &n.CreatedAt, &n.UpdatedAt, &liked)
		return n, err
	})
}
