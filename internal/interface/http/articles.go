package http

import (
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/timory/timory-hub/internal/application/command"
	"github.com/timory/timory-hub/internal/application/query"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARTICLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createArticleRequest struct {
	Category article.Category `json:"articleCategory"`
	Title    string           `json:"articleTitle"`
	Content  string           `json:"articleContent"`
	Image    string           `json:"articleImage"`
}

type updateArticleRequest struct {
	Status  *article.Status `json:"articleStatus"`
	Title   *string         `json:"articleTitle"`
	Content *string         `json:"articleContent"`
	Image   *string         `json:"articleImage"`
}

func (u updateArticleRequest) update() article.Update {
	return article.Update{Status: u.Status, Title: u.Title, Content: u.Content, Image: u.Image}
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Articles.Create(r.Context(), command.CreateArticleCommand{
		MemberID: viewerFrom(r.Context()).ID,
		Category: req.Category,
		Title:    req.Title,
		Content:  req.Content,
		Image:    req.Image,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Visits.Handle(r.Context(), command.VisitTargetCommand{
		ViewerID: viewerFrom(r.Context()).ID,
		TargetID: chi.URLParam(r, "id"),
		Group:    engagement.GroupArticle,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Article)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	s.updateArticle(w, r, viewerFrom(r.Context()).ID)
}

// handleAdminUpdateArticle runs the same lifecycle without the owner filter.
func (s *Server) handleAdminUpdateArticle(w http.ResponseWriter, r *http.Request) {
	s.updateArticle(w, r, "")
}

func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req updateArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.deps.Articles.Update(r.Context(), command.UpdateArticleCommand{
		MemberID:  ownerID,
		ArticleID: chi.URLParam(r, "id"),
		Update:    req.update(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSearchArticles(w http.ResponseWriter, r *http.Request) {
	in, err := articleSearchFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.ArticleQueries.Search(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleMyArticles(w http.ResponseWriter, r *http.Request) {
	in, err := articleSearchFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.ArticleQueries.Mine(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAdminListArticles(w http.ResponseWriter, r *http.Request) {
	p, err := pagingFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := s.deps.ArticleQueries.ByAdmin(r.Context(), query.AdminArticleSearch{
		Status:   article.Status(strings.ToUpper(q.Get("articleStatus"))),
		Category: article.Category(strings.ToUpper(q.Get("articleCategory"))),
		Paging:   p,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAdminRemoveArticle(w http.ResponseWriter, r *http.Request) {
	removed, err := s.deps.Articles.RemoveByAdmin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func articleSearchFrom(r *http.Request) (query.ArticleSearch, error) {
	p, err := pagingFrom(r)
	if err != nil {
		return query.ArticleSearch{}, err
	}
	q := r.URL.Query()
	return query.ArticleSearch{
		ViewerID: viewerFrom(r.Context()).ID,
		Category: article.Category(strings.ToUpper(q.Get("articleCategory"))),
		MemberID: q.Get("memberId"),
		Text:     q.Get("text"),
		Paging:   p,
	}, nil
}
