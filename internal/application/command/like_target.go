package command

import (
	"context"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIKE TARGET COMMAND
// Ставит или снимает лайк и возвращает цель с обновлёнными счётчиками.
// ══════════════════════════════════════════════════════════════════════════════

// LikeTargetCommand toggles MemberID's like on TargetID.
type LikeTargetCommand struct {
	MemberID string
	TargetID string
	Group    engagement.Group
}

// Validate validates the command.
func (c LikeTargetCommand) Validate() error {
	if err := shared.ValidateID("like", "memberId", c.MemberID); err != nil {
		return err
	}
	if err := shared.ValidateID("like", "likeRefId", c.TargetID); err != nil {
		return err
	}
	return validateGroup("like", c.Group)
}

// LikeTargetResult carries the modifier and the re-read target. Exactly one
// of Member, Watch and Article is set.
type LikeTargetResult struct {
	Modifier int
	target
}

// LikeTargetHandler handles LikeTargetCommand.
type LikeTargetHandler struct {
	deps Deps
}

// NewLikeTargetHandler creates a new LikeTargetHandler.
func NewLikeTargetHandler(deps Deps) *LikeTargetHandler {
	return &LikeTargetHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *LikeTargetHandler) Handle(ctx context.Context, cmd LikeTargetCommand) (*LikeTargetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := h.deps.resolveTarget(ctx, cmd.Group, cmd.TargetID, false)
	if err != nil {
		return nil, err
	}

	modifier, err := h.deps.Engagement.ToggleLike(ctx, cmd.MemberID, cmd.TargetID, cmd.Group)
	if err != nil {
		return nil, err
	}

	if modifier == appengagement.LikeAdded {
		h.deps.Notifier.Notify(ctx, notification.NewEngagement(
			notification.TypeLike, cmd.MemberID, t.OwnerID, cmd.Group, cmd.TargetID,
			"New like on "+t.Title, h.deps.now()))
	}

	t, err = h.deps.resolveTarget(ctx, cmd.Group, cmd.TargetID, false)
	if err != nil {
		return nil, err
	}
	liked, err := h.deps.Engagement.CheckLikeExistence(ctx, cmd.MemberID, cmd.TargetID)
	if err != nil {
		return nil, err
	}
	t.setMeLiked(liked)

	return &LikeTargetResult{Modifier: modifier, target: *t}, nil
}

func (t *target) setMeLiked(liked []shared.MeLiked) {
	switch {
	case t.Member != nil:
		t.Member.MeLiked = liked
	case t.Watch != nil:
		t.Watch.MeLiked = liked
	case t.Article != nil:
		t.Article.MeLiked = liked
	}
}
