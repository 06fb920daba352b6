package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// WatchRepository implements watch.Repository and watch.RankRepository.
type WatchRepository struct {
	q Querier
}

// NewWatchRepository creates a watch repository over q.
func NewWatchRepository(q Querier) *WatchRepository {
	return &WatchRepository{q: q}
}

const watchColumns = `
	w.id, w.watch_type, w.watch_status, w.watch_location, w.watch_address, w.watch_model_name,
	w.watch_brand, w.watch_color, w.watch_limited_edition, w.watch_price, w.watch_images, w.watch_desc,
	w.watch_views, w.watch_likes, w.watch_comments, w.watch_rank,
	w.member_id, w.dealer_ids::text[], w.sold_at, w.deleted_at, w.created_at, w.updated_at`

var watchSorts = map[string]string{
	"createdAt":  "w.created_at",
	"updatedAt":  "w.updated_at",
	"watchPrice": "w.watch_price",
	"watchViews": "w.watch_views",
	"watchLikes": "w.watch_likes",
	"watchRank":  "w.watch_rank",
}

func watchDest(w *watch.Watch) []any {
	return []any{
		&w.ID, &w.Type, &w.Status, &w.Location, &w.Address, &w.ModelName,
		&w.Brand, &w.Color, &w.LimitedEdition, &w.Price, &w.Images, &w.Desc,
		&w.Views, &w.Likes, &w.Comments, &w.Rank,
		&w.MemberID, &w.DealerIDs, &w.SoldAt, &w.DeletedAt, &w.CreatedAt, &w.UpdatedAt,
	}
}

// scanListedWatch scans a listQuery row: watch, owner profile, me_liked.
func scanListedWatch(rows pgx.Rows, viewerID string) (*watch.Watch, error) {
	w := &watch.Watch{}
	p := &member.Profile{}
	var liked bool
	dest := append(watchDest(w), profileDest(p)...)
	if err := rows.Scan(append(dest, &liked)...); err != nil {
		return nil, err
	}
	w.MemberData = p
	w.MeLiked = meLiked(viewerID, w.ID, liked)
	return w, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create inserts a listing. An unknown owner maps to shared.ErrNotFound.
func (r *WatchRepository) Create(ctx context.Context, w *watch.Watch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO watches (
			id, watch_type, watch_status, watch_location, watch_address, watch_model_name,
			watch_brand, watch_color, watch_limited_edition, watch_price, watch_images, watch_desc,
			member_id, dealer_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::uuid[], $15, $16)`,
		w.ID, string(w.Type), string(w.Status), string(w.Location), w.Address, w.ModelName,
		w.Brand, w.Color, w.LimitedEdition, w.Price, nonNil(w.Images), w.Desc,
		w.MemberID, nonNil(w.DealerIDs), w.CreatedAt, w.UpdatedAt,
	)
	return mapError("watch", "Create", err)
}

// GetByID returns a watch with its owner profile.
func (r *WatchRepository) GetByID(ctx context.Context, id string, statuses ...watch.Status) (*watch.Watch, error) {
	f := filter{}
	f.eq("w.id", id)
	f.in("w.watch_status", strs(statuses))

	row := r.q.QueryRow(ctx, `SELECT `+watchColumns+`, `+profileColumns+`
		FROM watches w JOIN members m ON m.id = w.member_id`+f.where(), f.args...)

	w := &watch.Watch{}
	p := &member.Profile{}
	if err := row.Scan(append(watchDest(w), profileDest(p)...)...); err != nil {
		return nil, mapError("watch", "GetByID", err)
	}
	w.MemberData = p
	return w, nil
}

// Save writes listing fields and lifecycle timestamps. Counters and rank
// are left untouched.
func (r *WatchRepository) Save(ctx context.Context, w *watch.Watch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE watches SET
			watch_type = $2, watch_status = $3, watch_location = $4, watch_address = $5,
			watch_model_name = $6, watch_brand = $7, watch_color = $8, watch_limited_edition = $9,
			watch_price = $10, watch_images = $11, watch_desc = $12, dealer_ids = $13::uuid[],
			sold_at = $14, deleted_at = $15, updated_at = $16
		WHERE id = $1`,
		w.ID, string(w.Type), string(w.Status), string(w.Location), w.Address,
		w.ModelName, w.Brand, w.Color, w.LimitedEdition,
		w.Price, nonNil(w.Images), w.Desc, nonNil(w.DealerIDs),
		w.SoldAt, w.DeletedAt, w.UpdatedAt,
	)
	if err != nil {
		return mapError("watch", "Save", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("watch", "Save", shared.ErrNotFound, shared.MsgUpdateFailed)
	}
	return nil
}

// Purge hard-deletes a watch already in DELETE status.
func (r *WatchRepository) Purge(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM watches WHERE id = $1 AND watch_status = $2`, id, string(watch.StatusDelete))
	if err != nil {
		return mapError("watch", "Purge", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("watch", "Purge", shared.ErrNotFound, shared.MsgRemoveFailed)
	}
	return nil
}

// AdjustCounter adds delta to one counter column in a single statement.
func (r *WatchRepository) AdjustCounter(ctx context.Context, id string, counter watch.Counter, delta int) (*watch.Watch, error) {
	if counter.IsZero() {
		return nil, shared.Validation("watch", "AdjustCounter", "unknown counter")
	}
	col := counter.Column()
	w := &watch.Watch{}
	err := r.q.QueryRow(ctx,
		`UPDATE watches w SET `+col+` = `+col+` + $2 WHERE w.id = $1 RETURNING `+watchColumns,
		id, delta,
	).Scan(watchDest(w)...)
	if err != nil {
		return nil, mapError("watch", "AdjustCounter", err)
	}
	return w, nil
}

func watchSearch(f *filter, s watch.Search) {
	f.eq("w.member_id", s.BrandID)
	f.has("w.dealer_ids::text[]", s.DealerID)
	f.in("w.watch_type", strs(s.Types))
	f.in("w.watch_status", strs(s.Statuses))
	f.in("w.watch_location", strs(s.Locations))
	if s.Prices != nil {
		f.between("w.watch_price", s.Prices.Start, s.Prices.End)
	}
	if s.Periods != nil {
		f.between("w.created_at", s.Periods.Start, s.Periods.End)
	}
	f.contains("w.watch_model_name", s.Text)
}

// List returns a page of watches matching s.
func (r *WatchRepository) List(ctx context.Context, s watch.Search, p shared.Paging, viewerID string) (shared.Page[*watch.Watch], error) {
	l := &listQuery{
		from:     "watches w",
		columns:  watchColumns,
		ownerCol: "w.member_id",
		likeRef:  "w.id",
		sorts:    watchSorts,
		tiebreak: "w.id",
	}
	watchSearch(&l.where, s)

	return fetchPage(ctx, r.q, "watch", l, p, viewerID, func(rows pgx.Rows) (*watch.Watch, error) {
		return scanListedWatch(rows, viewerID)
	})
}

// ListLikedBy pages the watches memberID liked, most recent like first.
func (r *WatchRepository) ListLikedBy(ctx context.Context, memberID string, p shared.Paging) (shared.Page[*watch.Watch], error) {
	l := &listQuery{
		from:     "likes f JOIN watches w ON w.id = f.like_ref_id",
		columns:  watchColumns,
		ownerCol: "w.member_id",
		likeRef:  "w.id",
		order:    "f.updated_at DESC, f.id",
	}
	l.where.eq("f.member_id", memberID)
	l.where.eq("f.like_group", "WATCH")

	return fetchPage(ctx, r.q, "watch", l, p, memberID, func(rows pgx.Rows) (*watch.Watch, error) {
		return scanListedWatch(rows, memberID)
	})
}

// ListViewedBy pages the watches memberID viewed, most recent view first.
func (r *WatchRepository) ListViewedBy(ctx context.Context, memberID string, p shared.Paging) (shared.Page[*watch.Watch], error) {
	l := &listQuery{
		from:     "views f JOIN watches w ON w.id = f.view_ref_id",
		columns:  watchColumns,
		ownerCol: "w.member_id",
		order:    "f.updated_at DESC, f.id",
	}
	l.where.eq("f.member_id", memberID)
	l.where.eq("f.view_group", "WATCH")

	page, err := fetchPage(ctx, r.q, "watch", l, p, "", func(rows pgx.Rows) (*watch.Watch, error) {
		return scanListedWatch(rows, "")
	})
	return page, err
}

// GetByIDs loads watches in the order of ids. Unknown ids are skipped.
func (r *WatchRepository) GetByIDs(ctx context.Context, ids []string) ([]*watch.Watch, error) {
	if len(ids) == 0 {
		return []*watch.Watch{}, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+watchColumns+`, `+profileColumns+`, FALSE
		FROM watches w JOIN members m ON m.id = w.member_id
		WHERE w.id = ANY($1::uuid[])
		ORDER BY array_position($1::uuid[], w.id)`, ids)
	if err != nil {
		return nil, mapError("watch", "GetByIDs", err)
	}
	defer rows.Close()

	out := make([]*watch.Watch, 0, len(ids))
	for rows.Next() {
		w, err := scanListedWatch(rows, "")
		if err != nil {
			return nil, shared.Storage("watch", "GetByIDs", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK BATCH
// ══════════════════════════════════════════════════════════════════════════════

// ResetRanks zeroes watchRank on every ACTIVE watch.
func (r *WatchRepository) ResetRanks(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE watches SET watch_rank = 0 WHERE watch_status = $1`, string(watch.StatusActive))
	if err != nil {
		return 0, mapError("watch", "ResetRanks", err)
	}
	return tag.RowsAffected(), nil
}

// ListUnranked returns ACTIVE watches with watchRank = 0.
func (r *WatchRepository) ListUnranked(ctx context.Context) ([]*watch.Watch, error) {
	rows, err := r.q.Query(ctx, `SELECT `+watchColumns+` FROM watches w
		WHERE w.watch_status = $1 AND w.watch_rank = 0 ORDER BY w.id`, string(watch.StatusActive))
	if err != nil {
		return nil, mapError("watch", "ListUnranked", err)
	}
	defer rows.Close()

	var out []*watch.Watch
	for rows.Next() {
		w := &watch.Watch{}
		if err := rows.Scan(watchDest(w)...); err != nil {
			return nil, shared.Storage("watch", "ListUnranked", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SetRank stores a computed watchRank.
func (r *WatchRepository) SetRank(ctx context.Context, id string, rank int) error {
	tag, err := r.q.Exec(ctx, `UPDATE watches SET watch_rank = $2 WHERE id = $1`, id, rank)
	if err != nil {
		return mapError("watch", "SetRank", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("watch", "SetRank")
	}
	return nil
}
