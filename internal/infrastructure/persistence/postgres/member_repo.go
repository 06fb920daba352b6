package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// MemberRepository implements member.Repository and member.RankRepository.
type MemberRepository struct {
	q Querier
}

// NewMemberRepository creates a member repository over q.
func NewMemberRepository(q Querier) *MemberRepository {
	return &MemberRepository{q: q}
}

const memberColumns = `
	id, member_type, member_status, member_nick, member_full_name, member_image,
	member_address, member_desc, member_phone,
	member_watches, member_articles, member_followers, member_followings, member_points,
	member_likes, member_views, member_comments, member_rank, member_warnings, member_blocks,
	created_at, updated_at`

var memberSorts = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"memberLikes": "member_likes",
	"memberViews": "member_views",
	"memberRank":  "member_rank",
}

func memberDest(m *member.Member) []any {
	return []any{
		&m.ID, &m.Type, &m.Status, &m.Nick, &m.FullName, &m.Image,
		&m.Address, &m.Desc, &m.Phone,
		&m.Watches, &m.Articles, &m.Followers, &m.Followings, &m.Points,
		&m.Likes, &m.Views, &m.Comments, &m.Rank, &m.Warnings, &m.Blocks,
		&m.CreatedAt, &m.UpdatedAt,
	}
}

func scanMember(row pgx.Row) (*member.Member, error) {
	m := &member.Member{}
	if err := row.Scan(memberDest(m)...); err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a new member. A taken nick maps to shared.ErrAlreadyExists.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO members (
			id, member_type, member_status, member_nick, member_full_name, member_image,
			member_address, member_desc, member_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.Type, m.Status, m.Nick, m.FullName, m.Image,
		m.Address, m.Desc, m.Phone, m.CreatedAt, m.UpdatedAt,
	)
	if IsUniqueViolation(err) {
		return shared.WrapError("member", "Create", shared.ErrAlreadyExists, "nick is already in use", err)
	}
	return mapError("member", "Create", err)
}

// GetByID retrieves a member, optionally restricted to statuses.
func (r *MemberRepository) GetByID(ctx context.Context, id string, statuses ...member.Status) (*member.Member, error) {
	f := filter{}
	f.eq("id", id)
	f.in("member_status", strs(statuses))

	m, err := scanMember(r.q.QueryRow(ctx, `SELECT `+memberColumns+` FROM members`+f.where(), f.args...))
	if err != nil {
		return nil, mapError("member", "GetByID", err)
	}
	return m, nil
}

// profileSet renders the SET fragments for non-nil profile fields.
func profileSet(f *filter, upd member.ProfileUpdate) []string {
	var sets []string
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = "+f.arg(*v))
		}
	}
	add("member_nick", upd.Nick)
	add("member_full_name", upd.FullName)
	add("member_image", upd.Image)
	add("member_address", upd.Address)
	add("member_desc", upd.Desc)
	add("member_phone", upd.Phone)
	return sets
}

func (r *MemberRepository) update(ctx context.Context, op, id string, sets []string, f *filter, onlyActive bool) (*member.Member, error) {
	sets = append(sets, "updated_at = "+f.arg(time.Now().UTC()))
	sql := `UPDATE members SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + f.arg(id)
	if onlyActive {
		sql += ` AND member_status = ` + f.arg(string(member.StatusActive))
	}
	sql += ` RETURNING ` + memberColumns

	m, err := scanMember(r.q.QueryRow(ctx, sql, f.args...))
	if IsUniqueViolation(err) {
		return nil, shared.WrapError("member", op, shared.ErrAlreadyExists, "nick is already in use", err)
	}
	if err != nil {
		return nil, mapError("member", op, err)
	}
	return m, nil
}

// UpdateProfile applies upd to an ACTIVE member.
func (r *MemberRepository) UpdateProfile(ctx context.Context, id string, upd member.ProfileUpdate) (*member.Member, error) {
	f := &filter{}
	return r.update(ctx, "UpdateProfile", id, profileSet(f, upd), f, true)
}

// UpdateByAdmin applies upd regardless of the member's status.
func (r *MemberRepository) UpdateByAdmin(ctx context.Context, id string, upd member.AdminUpdate) (*member.Member, error) {
	f := &filter{}
	sets := profileSet(f, upd.ProfileUpdate)
	if upd.Type != nil {
		sets = append(sets, "member_type = "+f.arg(string(*upd.Type)))
	}
	if upd.Status != nil {
		sets = append(sets, "member_status = "+f.arg(string(*upd.Status)))
	}
	return r.update(ctx, "UpdateByAdmin", id, sets, f, false)
}

// AdjustCounter adds delta to one counter column in a single statement.
func (r *MemberRepository) AdjustCounter(ctx context.Context, id string, counter member.Counter, delta int) (*member.Member, error) {
	if counter.IsZero() {
		return nil, shared.Validation("member", "AdjustCounter", "unknown counter")
	}
	col := counter.Column()
	m, err := scanMember(r.q.QueryRow(ctx,
		`UPDATE members SET `+col+` = `+col+` + $2 WHERE id = $1 RETURNING `+memberColumns,
		id, delta,
	))
	if err != nil {
		return nil, mapError("member", "AdjustCounter", err)
	}
	return m, nil
}

// List returns a page of members matching f.
func (r *MemberRepository) List(ctx context.Context, mf member.Filter, p shared.Paging, viewerID string) (shared.Page[*member.Member], error) {
	l := &listQuery{
		from:     "members",
		columns:  memberColumns,
		likeRef:  "members.id",
		sorts:    memberSorts,
		tiebreak: "members.id",
	}
	l.where.in("member_type", strs(mf.Types))
	l.where.in("member_status", strs(mf.Statuses))
	l.where.contains("member_nick", mf.Text)

	return fetchPage(ctx, r.q, "member", l, p, viewerID, func(rows pgx.Rows) (*member.Member, error) {
		m := &member.Member{}
		var liked bool
		if err := rows.Scan(append(memberDest(m), &liked)...); err != nil {
			return nil, err
		}
		m.MeLiked = meLiked(viewerID, m.ID, liked)
		return m, nil
	})
}

// FilterDealers returns the ids that belong to DEALER members, in input order.
func (r *MemberRepository) FilterDealers(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT u.id::text
		FROM unnest($1::uuid[]) WITH ORDINALITY AS u(id, ord)
		JOIN members ON members.id = u.id
		WHERE member_type = $2
		ORDER BY u.ord`,
		ids, string(member.TypeDealer),
	)
	if err != nil {
		return nil, mapError("member", "FilterDealers", err)
	}
	defer rows.Close()

	out := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, shared.Storage("member", "FilterDealers", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetByIDs loads members by id. Unknown ids are skipped.
func (r *MemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*member.Member, error) {
	return r.query(ctx, "GetByIDs", `
		SELECT `+memberColumns+` FROM members
		WHERE id = ANY($1) ORDER BY array_position($1::uuid[], id)`, ids)
}

func (r *MemberRepository) query(ctx context.Context, op, sql string, args ...any) ([]*member.Member, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("member", op, err)
	}
	defer rows.Close()

	var out []*member.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, shared.Storage("member", op, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK BATCH
// ══════════════════════════════════════════════════════════════════════════════

// ResetDealerRanks zeroes memberRank on every ACTIVE dealer.
func (r *MemberRepository) ResetDealerRanks(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE members SET member_rank = 0 WHERE member_type = $1 AND member_status = $2`,
		string(member.TypeDealer), string(member.StatusActive),
	)
	if err != nil {
		return 0, mapError("member", "ResetDealerRanks", err)
	}
	return tag.RowsAffected(), nil
}

// ListUnrankedDealers returns ACTIVE dealers with memberRank = 0.
func (r *MemberRepository) ListUnrankedDealers(ctx context.Context) ([]*member.Member, error) {
	return r.query(ctx, "ListUnrankedDealers", `
		SELECT `+memberColumns+` FROM members
		WHERE member_type = $1 AND member_status = $2 AND member_rank = 0
		ORDER BY id`,
		string(member.TypeDealer), string(member.StatusActive),
	)
}

// SetRank stores a computed memberRank.
func (r *MemberRepository) SetRank(ctx context.Context, id string, rank int) error {
	tag, err := r.q.Exec(ctx, `UPDATE members SET member_rank = $2 WHERE id = $1`, id, rank)
	if err != nil {
		return mapError("member", "SetRank", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("member", "SetRank")
	}
	return nil
}
