package memory

import (
	"context"
	"sort"
	"time"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// WatchRepository implements watch.Repository and watch.RankRepository.
type WatchRepository struct {
	db *DB
}

func (r *WatchRepository) Create(ctx context.Context, w *watch.Watch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("watch.Create"); err != nil {
		return err
	}
	if _, ok := r.db.t.members[w.MemberID]; !ok {
		return shared.NotFound("watch", "Create")
	}
	stored := *w
	stored.MeLiked, stored.MemberData = nil, nil
	r.db.t.watches[w.ID] = stored
	return nil
}

func (r *WatchRepository) GetByID(ctx context.Context, id string, statuses ...watch.Status) (*watch.Watch, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	w, ok := r.db.t.watches[id]
	if !ok || !in(w.Status, statuses) {
		return nil, shared.NotFound("watch", "GetByID")
	}
	w.MemberData = r.db.profile(w.MemberID)
	return &w, nil
}

func (r *WatchRepository) Save(ctx context.Context, w *watch.Watch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("watch.Save"); err != nil {
		return err
	}
	existing, ok := r.db.t.watches[w.ID]
	if !ok {
		return shared.NotFound("watch", "Save")
	}
	stored := *w
	// counters are owned by AdjustCounter and the rank batch
	stored.Views, stored.Likes, stored.Comments, stored.Rank = existing.Views, existing.Likes, existing.Comments, existing.Rank
	stored.MeLiked, stored.MemberData = nil, nil
	r.db.t.watches[w.ID] = stored
	return nil
}

func (r *WatchRepository) Purge(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	w, ok := r.db.t.watches[id]
	if !ok || !w.IsPurgeable() {
		return shared.NotFound("watch", "Purge")
	}
	delete(r.db.t.watches, id)
	return nil
}

func watchCounter(w *watch.Watch, c watch.Counter) *int {
	switch c {
	case watch.CounterViews:
		return &w.Views
	case watch.CounterLikes:
		return &w.Likes
	case watch.CounterComments:
		return &w.Comments
	}
	return nil
}

func (r *WatchRepository) AdjustCounter(ctx context.Context, id string, counter watch.Counter, delta int) (*watch.Watch, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("watch.AdjustCounter"); err != nil {
		return nil, err
	}
	w, ok := r.db.t.watches[id]
	if !ok {
		return nil, shared.NotFound("watch", "AdjustCounter")
	}
	field := watchCounter(&w, counter)
	if field == nil {
		return nil, shared.Validation("watch", "AdjustCounter", "unknown counter")
	}
	if err := counterResult("watch", *field+delta); err != nil {
		return nil, err
	}
	*field += delta
	r.db.t.watches[id] = w
	return &w, nil
}

func watchSortKey(w *watch.Watch, key string) float64 {
	switch key {
	case "updatedAt":
		return timeKey(w.UpdatedAt)
	case "watchPrice":
		return w.Price
	case "watchViews":
		return float64(w.Views)
	case "watchLikes":
		return float64(w.Likes)
	case "watchRank":
		return float64(w.Rank)
	default:
		return timeKey(w.CreatedAt)
	}
}

func matchesSearch(w *watch.Watch, s watch.Search) bool {
	if s.BrandID != "" && w.MemberID != s.BrandID {
		return false
	}
	if s.DealerID != "" && !in(s.DealerID, w.DealerIDs) {
		return false
	}
	if len(w.DealerIDs) == 0 && s.DealerID != "" {
		return false
	}
	if !in(w.Type, s.Types) || !in(w.Status, s.Statuses) || !in(w.Location, s.Locations) {
		return false
	}
	if s.Prices != nil && (w.Price < s.Prices.Start || w.Price > s.Prices.End) {
		return false
	}
	if s.Periods != nil && (w.CreatedAt.Before(s.Periods.Start) || w.CreatedAt.After(s.Periods.End)) {
		return false
	}
	if s.Text != "" && !containsFold(w.ModelName, s.Text) {
		return false
	}
	return true
}

func (r *WatchRepository) List(ctx context.Context, s watch.Search, p shared.Paging, viewerID string) (shared.Page[*watch.Watch], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("watch.List"); err != nil {
		return shared.Page[*watch.Watch]{}, err
	}

	var items []*watch.Watch
	for _, w := range r.db.t.watches {
		if !matchesSearch(&w, s) {
			continue
		}
		cp := w
		cp.MeLiked = r.db.meLiked(viewerID, w.ID)
		cp.MemberData = r.db.profile(w.MemberID)
		items = append(items, &cp)
	}

	return paginate(items, p, func(w *watch.Watch) sortable {
		return sortable{id: w.ID, key: watchSortKey(w, p.Sort)}
	}), nil
}

type factRef struct {
	ref string
	at  time.Time
}

// pageByFacts returns watches in the order of refs, newest first.
func (r *WatchRepository) pageByFacts(refs []factRef, p shared.Paging) shared.Page[*watch.Watch] {
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].at.After(refs[j].at) })

	var items []*watch.Watch
	for _, f := range refs {
		w, ok := r.db.t.watches[f.ref]
		if !ok {
			continue
		}
		cp := w
		cp.MemberData = r.db.profile(w.MemberID)
		items = append(items, &cp)
	}

	page := shared.Paging{Page: p.Page, Limit: p.Limit, Direction: shared.Asc}
	idx := make(map[string]int, len(items))
	for i, w := range items {
		idx[w.ID] = i
	}
	return paginate(items, page, func(w *watch.Watch) sortable {
		return sortable{id: w.ID, key: float64(idx[w.ID])}
	})
}

func (r *WatchRepository) ListLikedBy(ctx context.Context, memberID string, p shared.Paging) (shared.Page[*watch.Watch], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var refs []factRef
	for k, l := range r.db.t.likes {
		if k.member == memberID && k.group == engagement.GroupWatch {
			refs = append(refs, factRef{ref: l.RefID, at: l.UpdatedAt})
		}
	}
	page := r.pageByFacts(refs, p)
	for _, w := range page.List {
		w.MeLiked = []shared.MeLiked{{MemberID: memberID, LikeRefID: w.ID, MyFavorite: true}}
	}
	return page, nil
}

func (r *WatchRepository) ListViewedBy(ctx context.Context, memberID string, p shared.Paging) (shared.Page[*watch.Watch], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var refs []factRef
	for _, v := range r.db.t.views {
		if v.MemberID == memberID && v.Group == engagement.GroupWatch {
			refs = append(refs, factRef{ref: v.RefID, at: v.UpdatedAt})
		}
	}
	return r.pageByFacts(refs, p), nil
}

func (r *WatchRepository) GetByIDs(ctx context.Context, ids []string) ([]*watch.Watch, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*watch.Watch, 0, len(ids))
	for _, id := range ids {
		if w, ok := r.db.t.watches[id]; ok {
			cp := w
			cp.MemberData = r.db.profile(w.MemberID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *WatchRepository) ResetRanks(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("watch.ResetRanks"); err != nil {
		return 0, err
	}
	var n int64
	for id, w := range r.db.t.watches {
		if w.Status == watch.StatusActive {
			w.Rank = 0
			r.db.t.watches[id] = w
			n++
		}
	}
	return n, nil
}

func (r *WatchRepository) ListUnranked(ctx context.Context) ([]*watch.Watch, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*watch.Watch
	for _, w := range r.db.t.watches {
		if w.Status == watch.StatusActive && w.Rank == 0 {
			cp := w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *WatchRepository) SetRank(ctx context.Context, id string, rank int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("watch.SetRank"); err != nil {
		return err
	}
	w, ok := r.db.t.watches[id]
	if !ok {
		return shared.NotFound("watch", "SetRank")
	}
	w.Rank = rank
	r.db.t.watches[id] = w
	return nil
}
