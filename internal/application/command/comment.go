package command

import (
	"context"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT COMMANDS
// Счётчик комментариев цели считает только ACTIVE комментарии: +1 при
// создании, -1 при мягком удалении. Жёсткое удаление админом счётчик не трогает.
// ══════════════════════════════════════════════════════════════════════════════

// CreateCommentCommand attaches a comment to RefID.
type CreateCommentCommand struct {
	MemberID string
	Group    engagement.Group
	RefID    string
	Content  string
}

// Validate validates the command.
func (c CreateCommentCommand) Validate() error {
	if err := shared.ValidateID("comment", "memberId", c.MemberID); err != nil {
		return err
	}
	if err := shared.ValidateID("comment", "commentRefId", c.RefID); err != nil {
		return err
	}
	if c.Content == "" {
		return shared.Validation("comment", "Create", "commentContent is required")
	}
	return validateGroup("comment", c.Group)
}

// UpdateCommentCommand edits an ACTIVE comment owned by MemberID. Status
// DELETE is a soft delete.
type UpdateCommentCommand struct {
	MemberID  string
	CommentID string
	Content   *string
	Status    *comment.Status
}

// Validate validates the command.
func (c UpdateCommentCommand) Validate() error {
	if err := shared.ValidateID("comment", "memberId", c.MemberID); err != nil {
		return err
	}
	if err := shared.ValidateID("comment", "_id", c.CommentID); err != nil {
		return err
	}
	if c.Content == nil && c.Status == nil {
		return shared.Validation("comment", "Update", "nothing to update")
	}
	if c.Content != nil && *c.Content == "" {
		return shared.Validation("comment", "Update", "commentContent cannot be empty")
	}
	if c.Status != nil && !c.Status.IsValid() {
		return shared.Validation("comment", "Update", "commentStatus must be one of [ACTIVE DELETE]")
	}
	return nil
}

// CommentHandler handles comment commands.
type CommentHandler struct {
	deps Deps
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(deps Deps) *CommentHandler {
	return &CommentHandler{deps: deps.withDefaults()}
}

// Create stores the comment and increments the target's comment counter.
func (h *CommentHandler) Create(ctx context.Context, cmd CreateCommentCommand) (*comment.Comment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	t, err := h.deps.resolveTarget(ctx, cmd.Group, cmd.RefID, false)
	if err != nil {
		return nil, err
	}

	now := h.deps.now()
	c := &comment.Comment{
		ID:        shared.NewID(),
		Status:    comment.StatusActive,
		Group:     cmd.Group,
		Content:   cmd.Content,
		RefID:     cmd.RefID,
		MemberID:  cmd.MemberID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = h.deps.Engagement.Do(ctx, "comment.create", func(ctx context.Context, st appengagement.Store) error {
		if err := st.Comments().Create(ctx, c); err != nil {
			if shared.IsValidation(err) {
				return err
			}
			return shared.WrapError("comment", "Create", shared.ErrConflict, shared.MsgCreateFailed, err)
		}
		return h.deps.Engagement.Editor(st).AdjustTarget(ctx, c.Group, c.RefID, appengagement.KindComments, 1)
	})
	if err != nil {
		return nil, err
	}

	h.deps.Notifier.Notify(ctx, notification.NewEngagement(
		notification.TypeComment, cmd.MemberID, t.OwnerID, cmd.Group, cmd.RefID,
		"New comment on "+t.Title, now))
	return c, nil
}

// Update edits the comment. Moving it to DELETE decrements the target counter
// in the same unit.
func (h *CommentHandler) Update(ctx context.Context, cmd UpdateCommentCommand) (*comment.Comment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var out *comment.Comment
	err := h.deps.Engagement.Do(ctx, "comment.update", func(ctx context.Context, st appengagement.Store) error {
		c, err := st.Comments().Update(ctx, cmd.CommentID, cmd.MemberID, comment.Update{Status: cmd.Status, Content: cmd.Content})
		if err != nil {
			return err
		}
		if cmd.Status != nil && *cmd.Status == comment.StatusDelete {
			if err := h.deps.Engagement.Editor(st).AdjustTarget(ctx, c.Group, c.RefID, appengagement.KindComments, -1); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveByAdmin hard-deletes a soft-deleted comment.
func (h *CommentHandler) RemoveByAdmin(ctx context.Context, commentID string) (*comment.Comment, error) {
	if err := shared.ValidateID("comment", "_id", commentID); err != nil {
		return nil, err
	}

	var out *comment.Comment
	err := h.deps.Engagement.Do(ctx, "comment.remove", func(ctx context.Context, st appengagement.Store) error {
		c, err := st.Comments().Delete(ctx, commentID)
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
