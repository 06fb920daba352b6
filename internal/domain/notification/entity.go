// Package notification содержит доменную модель уведомлений Timory Hub.
// Уведомление сохраняется в базе и, если получатель онлайн, дублируется в websocket.
package notification

import (
	"context"
	"time"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// Type определяет тип уведомления.
type Type string

const (
	TypeLike     Type = "LIKE"
	TypeComment  Type = "COMMENT"
	TypeNewWatch Type = "NEW_WATCH"
)

// Status - прочитано уведомление или нет.
type Status string

const (
	StatusWait Status = "WAIT"
	StatusRead Status = "READ"
)

// Notification - одно уведомление для одного получателя.
type Notification struct {
	ID         string           `json:"_id"`
	Type       Type             `json:"notificationType"`
	Status     Status           `json:"notificationStatus"`
	Group      engagement.Group `json:"notificationGroup"`
	Title      string           `json:"notificationTitle"`
	Desc       string           `json:"notificationDesc,omitempty"`
	AuthorID   string           `json:"authorId"`
	ReceiverID string           `json:"receiverId"`
	WatchID    string           `json:"watchId,omitempty"`
	ArticleID  string           `json:"articleId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// NewWatchForDealers строит уведомления NEW_WATCH для каждого дилера.
func NewWatchForDealers(authorID, watchID, title string, dealerIDs []string, now time.Time) []*Notification {
	out := make([]*Notification, 0, len(dealerIDs))
	for _, dealerID := range dealerIDs {
		if dealerID == authorID {
			continue
		}
		out = append(out, &Notification{
			ID:         shared.NewID(),
			Type:       TypeNewWatch,
			Status:     StatusWait,
			Group:      engagement.GroupWatch,
			Title:      title,
			AuthorID:   authorID,
			ReceiverID: dealerID,
			WatchID:    watchID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out
}

// NewEngagement строит уведомление LIKE или COMMENT владельцу receiverID.
// Возвращает nil, если автор действует над своей сущностью.
func NewEngagement(typ Type, authorID, receiverID string, group engagement.Group, refID, title string, now time.Time) *Notification {
	if receiverID == "" || authorID == receiverID {
		return nil
	}
	n := &Notification{
		ID:         shared.NewID(),
		Type:       typ,
		Status:     StatusWait,
		Group:      group,
		Title:      title,
		AuthorID:   authorID,
		ReceiverID: receiverID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch group {
	case engagement.GroupWatch:
		n.WatchID = refID
	case engagement.GroupArticle:
		n.ArticleID = refID
	}
	return n
}

// Repository - хранилище уведомлений.
type Repository interface {
	InsertMany(ctx context.Context, items []*Notification) error
	ListByReceiver(ctx context.Context, receiverID string, p shared.Paging) (shared.Page[*Notification], error)
}

// Pusher доставляет уведомление онлайн-получателю. Ошибки доставки не критичны.
type Pusher interface {
	Push(ctx context.Context, n *Notification) error
}
