package engagement

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// Service pairs every fact mutation with its counter update inside one
// unit of work.
type Service struct {
	uow     UnitOfWork
	likes   engagement.LikeRepository
	scope   engagement.ViewScope
	metrics Metrics
	log     zerolog.Logger
}

// Config holds Service dependencies.
type Config struct {
	UnitOfWork UnitOfWork
	// Likes serves read-only existence checks outside a unit of work.
	Likes     engagement.LikeRepository
	ViewScope engagement.ViewScope
	Metrics   Metrics
	Logger    zerolog.Logger
}

// NewService creates the engagement service.
func NewService(cfg Config) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	return &Service{
		uow:     cfg.UnitOfWork,
		likes:   cfg.Likes,
		scope:   cfg.ViewScope,
		metrics: cfg.Metrics,
		log:     cfg.Logger.With().Str("component", "engagement").Logger(),
	}
}

// ToggleLike flips actorID's like on targetID and adjusts the target's like
// counter by the returned modifier.
func (s *Service) ToggleLike(ctx context.Context, actorID, targetID string, group engagement.Group) (int, error) {
	var modifier int
	err := s.uow.Do(ctx, "like.toggle", func(ctx context.Context, st Store) error {
		m, err := NewLikeToggler(st.Likes()).ToggleLike(ctx, actorID, targetID, group)
		if err != nil {
			return err
		}
		modifier = m
		if m == LikeRaced {
			return nil
		}
		return NewCounterEditor(st, s.metrics).AdjustTarget(ctx, group, targetID, KindLikes, m)
	})
	if err != nil {
		s.logFailure(err, "like.toggle", actorID, targetID, group)
		return 0, err
	}

	s.metrics.LikeToggled(group, modifier)
	return modifier, nil
}

// RecordView stores a first view of targetID and bumps its view counter.
// It returns nil when the actor had already viewed the target.
func (s *Service) RecordView(ctx context.Context, actorID, targetID string, group engagement.Group) (*engagement.View, error) {
	var view *engagement.View
	err := s.uow.Do(ctx, "view.record", func(ctx context.Context, st Store) error {
		v, err := NewViewTracker(st.Views(), s.scope).RecordView(ctx, actorID, targetID, group)
		if err != nil || v == nil {
			return err
		}
		view = v
		return NewCounterEditor(st, s.metrics).AdjustTarget(ctx, group, targetID, KindViews, 1)
	})
	if err != nil {
		s.logFailure(err, "view.record", actorID, targetID, group)
		return nil, err
	}

	s.metrics.ViewRecorded(group, view != nil)
	return view, nil
}

// Do runs fn in a unit of work. Commands use it to pair their own writes
// with counter adjustments made through Editor.
func (s *Service) Do(ctx context.Context, op string, fn func(ctx context.Context, st Store) error) error {
	return s.uow.Do(ctx, op, fn)
}

// Editor returns a counter editor over st that reports to the service metrics.
func (s *Service) Editor(st Store) *CounterEditor {
	return NewCounterEditor(st, s.metrics)
}

// CheckLikeExistence reports whether actorID currently likes targetID.
func (s *Service) CheckLikeExistence(ctx context.Context, actorID, targetID string) ([]shared.MeLiked, error) {
	return NewLikeToggler(s.likes).CheckLikeExistence(ctx, actorID, targetID)
}

func (s *Service) logFailure(err error, op, actorID, targetID string, group engagement.Group) {
	if shared.IsValidation(err) || shared.IsNotFound(err) {
		return
	}
	ev := s.log.Error()
	if shared.IsPartialFailure(err) {
		ev = ev.Bool("partial", true)
	}
	ev.Err(err).
		Str("operation", op).
		Str("member_id", actorID).
		Str("ref_id", targetID).
		Str("group", string(group)).
		Msg("engagement operation failed")
}
