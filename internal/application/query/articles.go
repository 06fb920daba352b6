package query

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARTICLE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ArticleSearch is the public board search.
type ArticleSearch struct {
	ViewerID string
	Category article.Category
	MemberID string
	Text     string
	Paging   shared.Paging
}

// AdminArticleSearch lists articles in any status.
type AdminArticleSearch struct {
	Status   article.Status
	Category article.Category
	Paging   shared.Paging
}

// ArticleQueries serves article lists.
type ArticleQueries struct {
	deps Deps
}

// NewArticleQueries creates article queries.
func NewArticleQueries(deps Deps) *ArticleQueries {
	return &ArticleQueries{deps: deps}
}

// Search lists PUBLISHING articles. No match is an empty page.
func (q *ArticleQueries) Search(ctx context.Context, in ArticleSearch) (shared.Page[*article.Article], error) {
	s := article.Search{Statuses: []article.Status{article.StatusPublishing}, MemberID: in.MemberID, Text: in.Text}
	if in.Category != "" {
		s.Categories = []article.Category{in.Category}
	}
	return q.list(ctx, s, in.Paging, in.ViewerID)
}

// Mine lists the viewer's own PUBLISHING and DELETE articles.
func (q *ArticleQueries) Mine(ctx context.Context, in ArticleSearch) (shared.Page[*article.Article], error) {
	if err := shared.ValidateID("article", "memberId", in.ViewerID); err != nil {
		return shared.Page[*article.Article]{}, err
	}
	s := article.Search{Statuses: article.EditableStatuses, MemberID: in.ViewerID, Text: in.Text}
	if in.Category != "" {
		s.Categories = []article.Category{in.Category}
	}
	return q.list(ctx, s, in.Paging, in.ViewerID)
}

// ByAdmin lists articles filtered by status and category.
func (q *ArticleQueries) ByAdmin(ctx context.Context, in AdminArticleSearch) (shared.Page[*article.Article], error) {
	var s article.Search
	if in.Status != "" {
		s.Statuses = []article.Status{in.Status}
	}
	if in.Category != "" {
		s.Categories = []article.Category{in.Category}
	}
	return q.list(ctx, s, in.Paging, "")
}

func (q *ArticleQueries) list(ctx context.Context, s article.Search, p shared.Paging, viewerID string) (shared.Page[*article.Article], error) {
	p, err := q.deps.paging("article", p, article.AllowedSorts)
	if err != nil {
		return shared.Page[*article.Article]{}, err
	}
	if err := validEnums("article", "articleCategory", s.Categories); err != nil {
		return shared.Page[*article.Article]{}, err
	}
	if err := validEnums("article", "articleStatus", s.Statuses); err != nil {
		return shared.Page[*article.Article]{}, err
	}
	return q.deps.Articles.List(ctx, s, p, viewerID)
}
