package engagement

import (
	"context"
	"time"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// Like toggle modifiers.
const (
	LikeAdded   = 1
	LikeRemoved = -1
	// LikeRaced means a concurrent toggle inserted the same like first.
	// The like exists and its counter has already been adjusted.
	LikeRaced = 0
)

// LikeToggler flips like facts on and off.
type LikeToggler struct {
	likes engagement.LikeRepository
	now   func() time.Time
}

// NewLikeToggler creates a toggler over likes.
func NewLikeToggler(likes engagement.LikeRepository) *LikeToggler {
	return &LikeToggler{likes: likes, now: time.Now}
}

// ToggleLike removes the actor's like on targetID in group if it exists and
// returns LikeRemoved, otherwise inserts one and returns LikeAdded.
func (t *LikeToggler) ToggleLike(ctx context.Context, actorID, targetID string, group engagement.Group) (int, error) {
	if err := validateFact("like", actorID, targetID, group); err != nil {
		return 0, err
	}

	deleted, err := t.likes.Delete(ctx, actorID, targetID, group)
	if err != nil {
		return 0, shared.Storage("like", "Toggle", err)
	}
	if deleted {
		return LikeRemoved, nil
	}

	now := t.now().UTC()
	like := &engagement.Like{
		ID:        shared.NewID(),
		MemberID:  actorID,
		RefID:     targetID,
		Group:     group,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.likes.Insert(ctx, like); err != nil {
		if shared.IsAlreadyExists(err) {
			return LikeRaced, nil
		}
		return 0, shared.WrapError("like", "Toggle", shared.ErrConflict, shared.MsgCreateFailed, err)
	}
	return LikeAdded, nil
}

// CheckLikeExistence returns a one-element slice when actorID likes
// targetID in any group, and an empty slice otherwise or for anonymous actors.
func (t *LikeToggler) CheckLikeExistence(ctx context.Context, actorID, targetID string) ([]shared.MeLiked, error) {
	if actorID == "" || targetID == "" {
		return []shared.MeLiked{}, nil
	}

	like, err := t.likes.Find(ctx, actorID, targetID)
	if err != nil {
		if shared.IsNotFound(err) {
			return []shared.MeLiked{}, nil
		}
		return nil, shared.Storage("like", "CheckExistence", err)
	}
	return []shared.MeLiked{engagement.MeLikedFrom(like)}, nil
}
