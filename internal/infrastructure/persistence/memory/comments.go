package memory

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// CommentRepository implements comment.Repository.
type CommentRepository struct {
	db *DB
}

func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("comment.Create"); err != nil {
		return err
	}
	stored := *c
	stored.MemberData = nil
	r.db.t.comments[c.ID] = stored
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string, statuses ...comment.Status) (*comment.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.t.comments[id]
	if !ok || !in(c.Status, statuses) {
		return nil, shared.NotFound("comment", "GetByID")
	}
	return &c, nil
}

func (r *CommentRepository) Update(ctx context.Context, id, ownerID string, upd comment.Update) (*comment.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.t.comments[id]
	if !ok || c.MemberID != ownerID || c.Status != comment.StatusActive {
		return nil, shared.NewDomainError("comment", "Update", shared.ErrNotFound, shared.MsgUpdateFailed)
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.Content != nil {
		c.Content = *upd.Content
	}
	c.UpdatedAt = r.db.now().UTC()
	r.db.t.comments[id] = c
	return &c, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) (*comment.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.t.comments[id]
	if !ok || c.Status != comment.StatusDelete {
		return nil, shared.NewDomainError("comment", "Delete", shared.ErrNotFound, shared.MsgRemoveFailed)
	}
	delete(r.db.t.comments, id)
	return &c, nil
}

func (r *CommentRepository) ListByRef(ctx context.Context, refID string, p shared.Paging) (shared.Page[*comment.Comment], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var items []*comment.Comment
	for _, c := range r.db.t.comments {
		if c.RefID != refID || c.Status != comment.StatusActive {
			continue
		}
		cp := c
		cp.MemberData = r.db.profile(c.MemberID)
		items = append(items, &cp)
	}
	return paginate(items, p, func(c *comment.Comment) sortable {
		return sortable{id: c.ID, key: timeKey(c.CreatedAt)}
	}), nil
}
