package http

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/timory/timory-hub/internal/application/command"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type profileRequest struct {
	Nick     *string `json:"memberNick"`
	FullName *string `json:"memberFullName"`
	Image    *string `json:"memberImage"`
	Address  *string `json:"memberAddress"`
	Desc     *string `json:"memberDesc"`
	Phone    *string `json:"memberPhone"`
}

func (p profileRequest) update() member.ProfileUpdate {
	return member.ProfileUpdate{
		Nick:     p.Nick,
		FullName: p.FullName,
		Image:    p.Image,
		Address:  p.Address,
		Desc:     p.Desc,
		Phone:    p.Phone,
	}
}

type adminMemberRequest struct {
	profileRequest
	Type   *member.Type   `json:"memberType"`
	Status *member.Status `json:"memberStatus"`
}

// handleGetMember opens a profile. ACTIVE and BLOCK members are visible.
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Visits.Handle(r.Context(), command.VisitTargetCommand{
		ViewerID: viewerFrom(r.Context()).ID,
		TargetID: chi.URLParam(r, "id"),
		Group:    engagement.GroupMember,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Member)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.deps.Members.UpdateProfile(r.Context(), command.UpdateProfileCommand{
		MemberID: viewerFrom(r.Context()).ID,
		Update:   req.update(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListDealers(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.MemberQueries.Dealers(r.Context(), viewerFrom(r.Context()).ID, r.URL.Query().Get("text"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.MemberQueries.Brands(r.Context(), viewerFrom(r.Context()).ID, r.URL.Query().Get("text"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleTopDealers(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "size", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.deps.MemberQueries.TopDealers(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminListMembers(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f := member.Filter{
		Types:    queryList[member.Type](r, "memberType"),
		Statuses: queryList[member.Status](r, "memberStatus"),
		Text:     r.URL.Query().Get("text"),
	}
	page, err := s.deps.MemberQueries.ByAdmin(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAdminUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req adminMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.deps.Members.UpdateByAdmin(r.Context(), command.UpdateMemberByAdminCommand{
		MemberID: chi.URLParam(r, "id"),
		Update: member.AdminUpdate{
			ProfileUpdate: req.update(),
			Type:          req.Type,
			Status:        req.Status,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIKES
// ══════════════════════════════════════════════════════════════════════════════

type likeResponse struct {
	Modifier int `json:"modifier"`
	Target   any `json:"target"`
}

// handleLike toggles the viewer's like on a target of the given group.
func (s *Server) handleLike(group engagement.Group) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.deps.Likes.Handle(r.Context(), command.LikeTargetCommand{
			MemberID: viewerFrom(r.Context()).ID,
			TargetID: chi.URLParam(r, "id"),
			Group:    group,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out := likeResponse{Modifier: res.Modifier}
		switch {
		case res.Member != nil:
			out.Target = res.Member
		case res.Watch != nil:
			out.Target = res.Watch
		case res.Article != nil:
			out.Target = res.Article
		}
		writeJSON(w, http.StatusOK, out)
	}
}
