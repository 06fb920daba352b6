package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/memory"
)

type recordingPusher struct {
	pushed []string
	err    error
}

func (p *recordingPusher) Push(ctx context.Context, n *notification.Notification) error {
	p.pushed = append(p.pushed, n.ReceiverID)
	return p.err
}

func listFor(t *testing.T, db *memory.DB, receiver string) int {
	t.Helper()
	page, err := db.Notifications().ListByReceiver(context.Background(), receiver, shared.Paging{Page: 1, Limit: 10}.Normalize())
	require.NoError(t, err)
	return page.Total
}

func TestNotify_StoresThenPushes(t *testing.T) {
	db := memory.New()
	pusher := &recordingPusher{}
	svc := NewNotificationService(db.Notifications(), pusher, zerolog.Nop())

	items := notification.NewWatchForDealers("brand", "w1", "New Watch Uploaded", []string{"d1", "d2"}, time.Now())
	svc.Notify(context.Background(), append(items, nil)...)

	assert.Equal(t, []string{"d1", "d2"}, pusher.pushed)
	assert.Equal(t, 1, listFor(t, db, "d1"))
	assert.Equal(t, 1, listFor(t, db, "d2"))
}

func TestNotify_PushFailureIsSwallowed(t *testing.T) {
	db := memory.New()
	pusher := &recordingPusher{err: errors.New("offline")}
	svc := NewNotificationService(db.Notifications(), pusher, zerolog.Nop())

	svc.Notify(context.Background(), notification.NewWatchForDealers("b", "w", "t", []string{"d1"}, time.Now())...)
	assert.Equal(t, 1, listFor(t, db, "d1"))
}

func TestNotify_StoreFailureSkipsPush(t *testing.T) {
	db := memory.New()
	db.FailOn("notification.InsertMany", errors.New("db down"))
	pusher := &recordingPusher{}
	svc := NewNotificationService(db.Notifications(), pusher, zerolog.Nop())

	svc.Notify(context.Background(), notification.NewWatchForDealers("b", "w", "t", []string{"d1"}, time.Now())...)
	assert.Empty(t, pusher.pushed)
	assert.Equal(t, 0, listFor(t, db, "d1"))
}

func TestNotify_NothingToSend(t *testing.T) {
	db := memory.New()
	pusher := &recordingPusher{}
	NewNotificationService(db.Notifications(), nil, zerolog.Nop()).Notify(context.Background())
	NewNotificationService(db.Notifications(), pusher, zerolog.Nop()).Notify(context.Background(), nil)
	assert.Empty(t, pusher.pushed)
}
