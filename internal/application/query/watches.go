package query

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// ══════════════════════════════════════════════════════════════════════════════
// WATCH QUERIES
// Поиск объявлений, избранное и просмотренное зрителя, топ по рангу.
// ══════════════════════════════════════════════════════════════════════════════

// WatchQueries serves watch lists.
type WatchQueries struct {
	deps Deps
}

// NewWatchQueries creates watch queries.
func NewWatchQueries(deps Deps) *WatchQueries {
	return &WatchQueries{deps: deps}
}

// Search lists watches matching s. Without a status filter only ACTIVE
// watches are returned. No match is an empty page.
func (q *WatchQueries) Search(ctx context.Context, viewerID string, s watch.Search, p shared.Paging) (shared.Page[*watch.Watch], error) {
	p, err := q.deps.paging("watch", p, watch.AllowedSorts)
	if err != nil {
		return shared.Page[*watch.Watch]{}, err
	}
	if len(s.Statuses) == 0 {
		s.Statuses = []watch.Status{watch.StatusActive}
	}
	if err := validateSearch(s); err != nil {
		return shared.Page[*watch.Watch]{}, err
	}

	return q.deps.Watches.List(ctx, s, p, viewerID)
}

// Favorites lists watches the viewer liked, latest like first.
func (q *WatchQueries) Favorites(ctx context.Context, viewerID string, p shared.Paging) (shared.Page[*watch.Watch], error) {
	p, err := q.viewerPaging(viewerID, p)
	if err != nil {
		return shared.Page[*watch.Watch]{}, err
	}
	return q.deps.Watches.ListLikedBy(ctx, viewerID, p)
}

// Visited lists watches the viewer opened, latest view first.
func (q *WatchQueries) Visited(ctx context.Context, viewerID string, p shared.Paging) (shared.Page[*watch.Watch], error) {
	p, err := q.viewerPaging(viewerID, p)
	if err != nil {
		return shared.Page[*watch.Watch]{}, err
	}
	return q.deps.Watches.ListViewedBy(ctx, viewerID, p)
}

// Top returns up to n ACTIVE watches by watchRank.
func (q *WatchQueries) Top(ctx context.Context, n int) ([]*watch.Watch, error) {
	n = topSize(n, q.deps.MaxLimit)
	if ids, ok := q.deps.cachedTop(ctx, watch.RankBoard, n); ok {
		items, err := q.deps.Watches.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make([]*watch.Watch, 0, len(items))
		for _, w := range items {
			if w.Status == watch.StatusActive {
				out = append(out, w)
			}
		}
		return out, nil
	}

	page, err := q.deps.Watches.List(ctx,
		watch.Search{Statuses: []watch.Status{watch.StatusActive}},
		shared.Paging{Page: 1, Limit: n, Sort: "watchRank", Direction: shared.Desc}, "")
	if err != nil {
		return nil, err
	}
	return page.List, nil
}

// viewerPaging checks the viewer id; the listing order of these lists is fixed.
func (q *WatchQueries) viewerPaging(viewerID string, p shared.Paging) (shared.Paging, error) {
	if err := shared.ValidateID("watch", "memberId", viewerID); err != nil {
		return p, err
	}
	return q.deps.paging("watch", p, watch.AllowedSorts)
}

func validateSearch(s watch.Search) error {
	if err := validEnums("watch", "typeList", s.Types); err != nil {
		return err
	}
	if err := validEnums("watch", "statusList", s.Statuses); err != nil {
		return err
	}
	if err := validEnums("watch", "locationList", s.Locations); err != nil {
		return err
	}
	if s.Prices != nil && s.Prices.Start > s.Prices.End {
		return shared.Validation("watch", "List", "pricesRange start must not exceed end")
	}
	if s.Periods != nil && s.Periods.Start.After(s.Periods.End) {
		return shared.Validation("watch", "List", "periodsRange start must not exceed end")
	}
	return nil
}
