package command

import (
	"context"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARTICLE COMMANDS
// Статья создаётся в PUBLISHING. REMOVE не хранится: строка удаляется, а
// memberArticles автора уменьшается в той же транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// CreateArticleCommand posts a board article.
type CreateArticleCommand struct {
	MemberID string
	Category article.Category
	Title    string
	Content  string
	Image    string
}

// Validate validates the command.
func (c CreateArticleCommand) Validate() error {
	if err := shared.ValidateID("article", "memberId", c.MemberID); err != nil {
		return err
	}
	if err := article.ValidateCreatable(c.Category); err != nil {
		return err
	}
	if c.Title == "" || c.Content == "" {
		return shared.Validation("article", "Create", "articleTitle and articleContent are required")
	}
	return nil
}

// UpdateArticleCommand edits an article. An empty MemberID is an admin edit
// that skips the ownership filter.
type UpdateArticleCommand struct {
	MemberID  string
	ArticleID string
	Update    article.Update
}

// Validate validates the command.
func (c UpdateArticleCommand) Validate() error {
	if c.MemberID != "" {
		if err := shared.ValidateID("article", "memberId", c.MemberID); err != nil {
			return err
		}
	}
	if err := shared.ValidateID("article", "_id", c.ArticleID); err != nil {
		return err
	}
	u := c.Update
	if u.Status == nil && u.Title == nil && u.Content == nil && u.Image == nil {
		return shared.Validation("article", "Update", "nothing to update")
	}
	if u.Status != nil && !u.Status.IsValid() {
		return shared.Validation("article", "Update", "articleStatus must be one of [PUBLISHING DELETE REMOVE]")
	}
	if (u.Title != nil && *u.Title == "") || (u.Content != nil && *u.Content == "") {
		return shared.Validation("article", "Update", "articleTitle and articleContent cannot be empty")
	}
	return nil
}

// ArticleHandler handles article commands.
type ArticleHandler struct {
	deps Deps
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(deps Deps) *ArticleHandler {
	return &ArticleHandler{deps: deps.withDefaults()}
}

// Create stores the article and bumps memberArticles in one unit.
func (h *ArticleHandler) Create(ctx context.Context, cmd CreateArticleCommand) (*article.Article, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := h.deps.Members.GetByID(ctx, cmd.MemberID, member.StatusActive); err != nil {
		return nil, notAllowedIfMissing(err, "article", "Create")
	}

	now := h.deps.now()
	a := &article.Article{
		ID:        shared.NewID(),
		Category:  cmd.Category,
		Status:    article.StatusPublishing,
		Title:     cmd.Title,
		Content:   cmd.Content,
		Image:     cmd.Image,
		MemberID:  cmd.MemberID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := h.deps.Engagement.Do(ctx, "article.create", func(ctx context.Context, st appengagement.Store) error {
		if err := st.Articles().Create(ctx, a); err != nil {
			return err
		}
		_, err := h.deps.Engagement.Editor(st).AdjustMember(ctx, a.MemberID, member.CounterArticles, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies cmd through the article lifecycle. A REMOVE status purges
// the row and returns it as it was before deletion.
func (h *ArticleHandler) Update(ctx context.Context, cmd UpdateArticleCommand) (*article.Article, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var out *article.Article
	err := h.deps.Engagement.Do(ctx, "article.update", func(ctx context.Context, st appengagement.Store) error {
		purge := false
		if cmd.Update.Status != nil {
			current, err := st.Articles().GetByID(ctx, cmd.ArticleID, article.EditableStatuses...)
			if err != nil {
				return updateFailed(err)
			}
			if cmd.MemberID != "" && current.MemberID != cmd.MemberID {
				return shared.NewDomainError("article", "Update", shared.ErrNotFound, shared.MsgUpdateFailed)
			}
			if purge, err = article.Transition(current.Status, *cmd.Update.Status); err != nil {
				return err
			}
		}

		if purge {
			a, err := h.remove(ctx, st, cmd.ArticleID, cmd.MemberID, article.EditableStatuses...)
			out = a
			return err
		}

		a, err := st.Articles().Update(ctx, cmd.ArticleID, cmd.MemberID, cmd.Update, article.EditableStatuses...)
		out = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveByAdmin hard-deletes an article in any status.
func (h *ArticleHandler) RemoveByAdmin(ctx context.Context, articleID string) (*article.Article, error) {
	if err := shared.ValidateID("article", "_id", articleID); err != nil {
		return nil, err
	}

	var out *article.Article
	err := h.deps.Engagement.Do(ctx, "article.remove", func(ctx context.Context, st appengagement.Store) error {
		a, err := h.remove(ctx, st, articleID, "")
		out = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *ArticleHandler) remove(ctx context.Context, st appengagement.Store, id, ownerID string, statuses ...article.Status) (*article.Article, error) {
	a, err := st.Articles().Delete(ctx, id, ownerID, statuses...)
	if err != nil {
		return nil, err
	}
	if _, err := h.deps.Engagement.Editor(st).AdjustMember(ctx, a.MemberID, member.CounterArticles, -1); err != nil {
		return nil, err
	}
	return a, nil
}

func updateFailed(err error) error {
	if shared.IsNotFound(err) {
		return shared.NewDomainError("article", "Update", shared.ErrNotFound, shared.MsgUpdateFailed)
	}
	return err
}
