package http

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/timory/timory-hub/internal/application/command"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT & NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createCommentRequest struct {
	Group   engagement.Group `json:"commentGroup"`
	RefID   string           `json:"commentRefId"`
	Content string           `json:"commentContent"`
}

type updateCommentRequest struct {
	Content *string         `json:"commentContent"`
	Status  *comment.Status `json:"commentStatus"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Comments.Create(r.Context(), command.CreateCommentCommand{
		MemberID: viewerFrom(r.Context()).ID,
		Group:    req.Group,
		RefID:    req.RefID,
		Content:  req.Content,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req updateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.deps.Comments.Update(r.Context(), command.UpdateCommentCommand{
		MemberID:  viewerFrom(r.Context()).ID,
		CommentID: chi.URLParam(r, "id"),
		Content:   req.Content,
		Status:    req.Status,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleListComments returns {list:[],total:0} when refId has no comments.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.CommentQueries.ByRef(r.Context(), r.URL.Query().Get("refId"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAdminRemoveComment(w http.ResponseWriter, r *http.Request) {
	removed, err := s.deps.Comments.RemoveByAdmin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.CommentQueries.Notifications(r.Context(), viewerFrom(r.Context()).ID, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
