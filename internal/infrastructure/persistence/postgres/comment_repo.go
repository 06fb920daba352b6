package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// CommentRepository implements comment.Repository.
type CommentRepository struct {
	q Querier
}

// NewCommentRepository creates a comment repository over q.
func NewCommentRepository(q Querier) *CommentRepository {
	return &CommentRepository{q: q}
}

const commentColumns = `c.id, c.comment_status, c.comment_group, c.comment_content, c.comment_ref_id,
	c.member_id, c.created_at, c.updated_at`

func commentDest(c *comment.Comment) []any {
	return []any{&c.ID, &c.Status, &c.Group, &c.Content, &c.RefID, &c.MemberID, &c.CreatedAt, &c.UpdatedAt}
}

func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO comments (id, comment_status, comment_group, comment_content, comment_ref_id, member_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, string(c.Status), string(c.Group), c.Content, c.RefID, c.MemberID, c.CreatedAt, c.UpdatedAt,
	)
	return mapError("comment", "Create", err)
}

func (r *CommentRepository) GetByID(ctx context.Context, id string, statuses ...comment.Status) (*comment.Comment, error) {
	f := filter{}
	f.eq("c.id", id)
	f.in("c.comment_status", strs(statuses))

	c := &comment.Comment{}
	if err := r.q.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments c`+f.where(), f.args...).Scan(commentDest(c)...); err != nil {
		return nil, mapError("comment", "GetByID", err)
	}
	return c, nil
}

// Update changes an ACTIVE comment owned by ownerID.
func (r *CommentRepository) Update(ctx context.Context, id, ownerID string, upd comment.Update) (*comment.Comment, error) {
	f := &filter{}
	var sets []string
	if upd.Status != nil {
		sets = append(sets, "comment_status = "+f.arg(string(*upd.Status)))
	}
	if upd.Content != nil {
		sets = append(sets, "comment_content = "+f.arg(*upd.Content))
	}
	sets = append(sets, "updated_at = "+f.arg(time.Now().UTC()))
	f.eq("id", id)
	f.eq("member_id", ownerID)
	f.eq("comment_status", string(comment.StatusActive))

	c := &comment.Comment{}
	err := r.q.QueryRow(ctx, `UPDATE comments c SET `+strings.Join(sets, ", ")+f.where()+
		` RETURNING `+commentColumns, f.args...).Scan(commentDest(c)...)
	if IsNoRows(err) {
		return nil, shared.WrapError("comment", "Update", shared.ErrNotFound, shared.MsgUpdateFailed, err)
	}
	if err != nil {
		return nil, mapError("comment", "Update", err)
	}
	return c, nil
}

// Delete hard-deletes a comment that is already in DELETE status.
func (r *CommentRepository) Delete(ctx context.Context, id string) (*comment.Comment, error) {
	c := &comment.Comment{}
	err := r.q.QueryRow(ctx, `DELETE FROM comments c WHERE c.id = $1 AND c.comment_status = $2 RETURNING `+commentColumns,
		id, string(comment.StatusDelete)).Scan(commentDest(c)...)
	if IsNoRows(err) {
		return nil, shared.WrapError("comment", "Delete", shared.ErrNotFound, shared.MsgRemoveFailed, err)
	}
	if err != nil {
		return nil, mapError("comment", "Delete", err)
	}
	return c, nil
}

// ListByRef pages ACTIVE comments on refID.
func (r *CommentRepository) ListByRef(ctx context.Context, refID string, p shared.Paging) (shared.Page[*comment.Comment], error) {
	l := &listQuery{
		from:     "comments c",
		columns:  commentColumns,
		ownerCol: "c.member_id",
		sorts:    map[string]string{"createdAt": "c.created_at"},
		tiebreak: "c.id",
	}
	l.where.eq("c.comment_ref_id", refID)
	l.where.eq("c.comment_status", string(comment.StatusActive))

	return fetchPage(ctx, r.q, "comment", l, p, "", func(rows pgx.Rows) (*comment.Comment, error) {
		c := &comment.Comment{}
		pr := &member.Profile{}
		var liked bool
		dest := append(commentDest(c), profileDest(pr)...)
		if err := rows.Scan(append(dest, &liked)...); err != nil {
			return nil, err
		}
		c.MemberData = pr
		return c, nil
	})
}
