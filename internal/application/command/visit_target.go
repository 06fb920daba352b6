package command

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VISIT TARGET COMMAND
// Открытие карточки: member, watch или article. Для авторизованного зрителя
// записывается просмотр и проставляется meLiked.
// ══════════════════════════════════════════════════════════════════════════════

// VisitTargetCommand opens TargetID on behalf of ViewerID. An empty ViewerID
// is an anonymous visit and records nothing.
type VisitTargetCommand struct {
	ViewerID string
	TargetID string
	Group    engagement.Group
}

// Validate validates the command.
func (c VisitTargetCommand) Validate() error {
	if err := shared.ValidateID("view", "viewRefId", c.TargetID); err != nil {
		return err
	}
	if c.ViewerID != "" {
		if err := shared.ValidateID("view", "memberId", c.ViewerID); err != nil {
			return err
		}
	}
	return validateGroup("view", c.Group)
}

// VisitTargetResult holds the opened entity.
type VisitTargetResult struct {
	// NewView is true when this visit was the viewer's first.
	NewView bool
	target
}

// VisitTargetHandler handles VisitTargetCommand.
type VisitTargetHandler struct {
	deps Deps
}

// NewVisitTargetHandler creates a new VisitTargetHandler.
func NewVisitTargetHandler(deps Deps) *VisitTargetHandler {
	return &VisitTargetHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *VisitTargetHandler) Handle(ctx context.Context, cmd VisitTargetCommand) (*VisitTargetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := h.deps.resolveTarget(ctx, cmd.Group, cmd.TargetID, true)
	if err != nil {
		return nil, err
	}
	res := &VisitTargetResult{target: *t}
	if cmd.ViewerID == "" {
		return res, nil
	}

	view, err := h.deps.Engagement.RecordView(ctx, cmd.ViewerID, cmd.TargetID, cmd.Group)
	if err != nil {
		return nil, err
	}
	if view != nil {
		res.NewView = true
		res.bumpViews()
	}

	liked, err := h.deps.Engagement.CheckLikeExistence(ctx, cmd.ViewerID, cmd.TargetID)
	if err != nil {
		return nil, err
	}
	res.setMeLiked(liked)
	return res, nil
}

// bumpViews mirrors the committed counter increment on the loaded copy.
func (t *target) bumpViews() {
	switch {
	case t.Member != nil:
		t.Member.Views++
	case t.Watch != nil:
		t.Watch.Views++
	case t.Article != nil:
		t.Article.Views++
	}
}
