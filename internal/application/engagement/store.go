// Package engagement implements view tracking, like toggling and the
// denormalized counter updates that follow them.
package engagement

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// Store exposes the repositories a unit of work may touch.
type Store interface {
	Members() member.Repository
	Watches() watch.Repository
	Articles() article.Repository
	Comments() comment.Repository
	Likes() engagement.LikeRepository
	Views() engagement.ViewRepository
}

// UnitOfWork runs a fact mutation and its counter adjustments as one
// operation. If fn returns an error nothing fn wrote is kept. If the outcome
// cannot be confirmed (commit or rollback failure) Do returns an error
// matching shared.ErrPartialFailure.
type UnitOfWork interface {
	Do(ctx context.Context, op string, fn func(ctx context.Context, s Store) error) error
}

// Metrics receives engagement events.
type Metrics interface {
	LikeToggled(group engagement.Group, modifier int)
	ViewRecorded(group engagement.Group, created bool)
	CounterAdjusted(entity string, err error)
}

// NopMetrics discards all events.
type NopMetrics struct{}

func (NopMetrics) LikeToggled(engagement.Group, int)   {}
func (NopMetrics) ViewRecorded(engagement.Group, bool) {}
func (NopMetrics) CounterAdjusted(string, error)       {}
