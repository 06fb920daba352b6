package postgres

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// LikeRepository implements engagement.LikeRepository.
type LikeRepository struct {
	q Querier
}

// NewLikeRepository creates a like repository over q.
func NewLikeRepository(q Querier) *LikeRepository {
	return &LikeRepository{q: q}
}

// Delete removes the like and reports whether one existed.
func (r *LikeRepository) Delete(ctx context.Context, memberID, refID string, group engagement.Group) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM likes WHERE member_id = $1 AND like_ref_id = $2 AND like_group = $3`,
		memberID, refID, string(group),
	)
	if err != nil {
		return false, mapError("like", "Delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Insert stores a like. A duplicate (a concurrent toggle won) reports
// shared.ErrAlreadyExists without raising 23505, so the surrounding
// transaction stays usable and still commits.
func (r *LikeRepository) Insert(ctx context.Context, like *engagement.Like) error {
	tag, err := r.q.Exec(ctx, insertLikeSQL,
		like.ID, string(like.Group), like.RefID, like.MemberID, like.CreatedAt, like.UpdatedAt,
	)
	if err != nil {
		return mapError("like", "Insert", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("like", "Insert", shared.ErrAlreadyExists, "like already exists")
	}
	return nil
}

const insertLikeSQL = `
		INSERT INTO likes (id, like_group, like_ref_id, member_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id, like_ref_id, like_group) DO NOTHING`

// Find returns any like by memberID on refID, whatever its group.
func (r *LikeRepository) Find(ctx context.Context, memberID, refID string) (*engagement.Like, error) {
	l := &engagement.Like{}
	err := r.q.QueryRow(ctx, `
		SELECT id, like_group, like_ref_id, member_id, created_at, updated_at
		FROM likes WHERE member_id = $1 AND like_ref_id = $2
		LIMIT 1`,
		memberID, refID,
	).Scan(&l.ID, &l.Group, &l.RefID, &l.MemberID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapError("like", "Find", err)
	}
	return l, nil
}

// ViewRepository implements engagement.ViewRepository.
type ViewRepository struct {
	q Querier
}

// NewViewRepository creates a view repository over q.
func NewViewRepository(q Querier) *ViewRepository {
	return &ViewRepository{q: q}
}

// InsertIfAbsent stores the view unless one already exists for the scope.
// The existence check and the insert are one statement; the unique
// constraint settles concurrent first views.
func (r *ViewRepository) InsertIfAbsent(ctx context.Context, v *engagement.View, scope engagement.ViewScope) (bool, error) {
	exists := `SELECT 1 FROM views WHERE member_id = $4 AND view_ref_id = $3`
	if scope == engagement.ViewScopeGroup {
		exists += ` AND view_group = $2`
	}

	tag, err := r.q.Exec(ctx, `
		INSERT INTO views (id, view_group, view_ref_id, member_id, created_at, updated_at)
		SELECT $1::uuid, $2::varchar, $3::uuid, $4::uuid, $5::timestamptz, $6::timestamptz
		WHERE NOT EXISTS (`+exists+`)
		ON CONFLICT (member_id, view_ref_id, view_group) DO NOTHING`,
		v.ID, string(v.Group), v.RefID, v.MemberID, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return false, mapError("view", "InsertIfAbsent", err)
	}
	return tag.RowsAffected() == 1, nil
}
