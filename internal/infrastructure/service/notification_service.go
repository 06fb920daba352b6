// Package service holds infrastructure services that sit between the
// application layer and several adapters.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/internal/domain/notification"
)

// NotificationService сохраняет уведомления и пушит их онлайн-получателям.
// Ошибки не возвращаются: доставка уведомлений не должна ломать основную операцию.
type NotificationService struct {
	repo   notification.Repository
	pusher notification.Pusher
	log    zerolog.Logger
}

// NewNotificationService creates the service. pusher may be nil.
func NewNotificationService(repo notification.Repository, pusher notification.Pusher, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		pusher: pusher,
		log:    log.With().Str("component", "notifier").Logger(),
	}
}

// Notify persists items, then pushes each one. nil items are skipped.
func (s *NotificationService) Notify(ctx context.Context, items ...*notification.Notification) {
	batch := make([]*notification.Notification, 0, len(items))
	for _, n := range items {
		if n != nil {
			batch = append(batch, n)
		}
	}
	if len(batch) == 0 {
		return
	}

	if err := s.repo.InsertMany(ctx, batch); err != nil {
		s.log.Warn().Err(err).
			Str("type", string(batch[0].Type)).
			Int("count", len(batch)).
			Msg("failed to store notifications")
		return
	}

	if s.pusher == nil {
		return
	}
	for _, n := range batch {
		if err := s.pusher.Push(ctx, n); err != nil {
			s.log.Warn().Err(err).
				Str("receiver_id", n.ReceiverID).
				Str("notification_id", n.ID).
				Msg("websocket push failed")
		}
	}
}
