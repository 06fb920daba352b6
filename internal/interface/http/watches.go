package http

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/timory/timory-hub/internal/application/command"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// ══════════════════════════════════════════════════════════════════════════════
// WATCH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createWatchRequest struct {
	Type           watch.Type     `json:"watchType"`
	Location       watch.Location `json:"watchLocation"`
	Address        string         `json:"watchAddress"`
	ModelName      string         `json:"watchModelName"`
	Brand          string         `json:"watchBrand"`
	Color          string         `json:"watchColor"`
	LimitedEdition bool           `json:"watchLimitedEdition"`
	Price          float64        `json:"watchPrice"`
	Images         []string       `json:"watchImages"`
	Desc           string         `json:"watchDesc"`
	DealerIDs      []string       `json:"dealerId"`
}

type updateWatchRequest struct {
	Type           *watch.Type     `json:"watchType"`
	Status         *watch.Status   `json:"watchStatus"`
	Location       *watch.Location `json:"watchLocation"`
	Address        *string         `json:"watchAddress"`
	ModelName      *string         `json:"watchModelName"`
	Brand          *string         `json:"watchBrand"`
	Color          *string         `json:"watchColor"`
	LimitedEdition *bool           `json:"watchLimitedEdition"`
	Price          *float64        `json:"watchPrice"`
	Images         []string        `json:"watchImages"`
	Desc           *string         `json:"watchDesc"`
}

func (s *Server) handleCreateWatch(w http.ResponseWriter, r *http.Request) {
	var req createWatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Watches.Create(r.Context(), command.CreateWatchCommand{
		MemberID:       viewerFrom(r.Context()).ID,
		Type:           req.Type,
		Location:       req.Location,
		Address:        req.Address,
		ModelName:      req.ModelName,
		Brand:          req.Brand,
		Color:          req.Color,
		LimitedEdition: req.LimitedEdition,
		Price:          req.Price,
		Images:         req.Images,
		Desc:           req.Desc,
		DealerIDs:      req.DealerIDs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetWatch(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Visits.Handle(r.Context(), command.VisitTargetCommand{
		ViewerID: viewerFrom(r.Context()).ID,
		TargetID: chi.URLParam(r, "id"),
		Group:    engagement.GroupWatch,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Watch)
}

func (s *Server) handleUpdateWatch(w http.ResponseWriter, r *http.Request) {
	var req updateWatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.deps.Watches.Update(r.Context(), command.UpdateWatchCommand{
		MemberID: viewerFrom(r.Context()).ID,
		WatchID:  chi.URLParam(r, "id"),
		Status:   req.Status,
		Update: watch.Update{
			Type:           req.Type,
			Location:       req.Location,
			Address:        req.Address,
			ModelName:      req.ModelName,
			Brand:          req.Brand,
			Color:          req.Color,
			LimitedEdition: req.LimitedEdition,
			Price:          req.Price,
			Images:         req.Images,
			Desc:           req.Desc,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleSearchWatches reads brandId, dealerId, typeList, statusList,
// locationList, pricesRange, periodsRange and text.
func (s *Server) handleSearchWatches(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	search := watch.Search{
		BrandID:   q.Get("brandId"),
		DealerID:  q.Get("dealerId"),
		Types:     queryList[watch.Type](r, "typeList"),
		Statuses:  queryList[watch.Status](r, "statusList"),
		Locations: queryList[watch.Location](r, "locationList"),
		Text:      q.Get("text"),
	}
	lo, hi, ok, err := queryRange(r, "pricesRange", parseFloat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ok {
		search.Prices = &watch.PriceRange{Start: lo, End: hi}
	}
	from, to, ok, err := queryRange(r, "periodsRange", parseTime)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ok {
		search.Periods = &watch.PeriodRange{Start: from, End: to}
	}

	page, err := s.deps.WatchQueries.Search(r.Context(), viewerFrom(r.Context()).ID, search, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleTopWatches(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "size", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.deps.WatchQueries.Top(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleFavoriteWatches(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.WatchQueries.Favorites(r.Context(), viewerFrom(r.Context()).ID, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleVisitedWatches(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.WatchQueries.Visited(r.Context(), viewerFrom(r.Context()).ID, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAdminPurgeWatch(w http.ResponseWriter, r *http.Request) {
	purged, err := s.deps.Watches.Purge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purged)
}
