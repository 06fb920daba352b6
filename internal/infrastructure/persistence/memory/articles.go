package memory

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ArticleRepository implements article.Repository.
type ArticleRepository struct {
	db *DB
}

func (r *ArticleRepository) Create(ctx context.Context, a *article.Article) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("article.Create"); err != nil {
		return err
	}
	stored := *a
	stored.MeLiked, stored.MemberData = nil, nil
	r.db.t.articles[a.ID] = stored
	return nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string, statuses ...article.Status) (*article.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.t.articles[id]
	if !ok || !in(a.Status, statuses) {
		return nil, shared.NotFound("article", "GetByID")
	}
	a.MemberData = r.db.profile(a.MemberID)
	return &a, nil
}

func (r *ArticleRepository) match(id, ownerID string, statuses []article.Status) (article.Article, bool) {
	a, ok := r.db.t.articles[id]
	if !ok || (ownerID != "" && a.MemberID != ownerID) || !in(a.Status, statuses) {
		return article.Article{}, false
	}
	return a, true
}

func (r *ArticleRepository) Update(ctx context.Context, id, ownerID string, upd article.Update, statuses ...article.Status) (*article.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("article.Update"); err != nil {
		return nil, err
	}
	a, ok := r.match(id, ownerID, statuses)
	if !ok {
		return nil, shared.NewDomainError("article", "Update", shared.ErrNotFound, shared.MsgUpdateFailed)
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Content != nil {
		a.Content = *upd.Content
	}
	if upd.Image != nil {
		a.Image = *upd.Image
	}
	a.UpdatedAt = r.db.now().UTC()
	r.db.t.articles[id] = a
	return &a, nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id, ownerID string, statuses ...article.Status) (*article.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.match(id, ownerID, statuses)
	if !ok {
		return nil, shared.NewDomainError("article", "Delete", shared.ErrNotFound, shared.MsgRemoveFailed)
	}
	delete(r.db.t.articles, id)
	return &a, nil
}

func articleCounter(a *article.Article, c article.Counter) *int {
	switch c {
	case article.CounterViews:
		return &a.Views
	case article.CounterLikes:
		return &a.Likes
	case article.CounterComments:
		return &a.Comments
	}
	return nil
}

func (r *ArticleRepository) AdjustCounter(ctx context.Context, id string, counter article.Counter, delta int) (*article.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("article.AdjustCounter"); err != nil {
		return nil, err
	}
	a, ok := r.db.t.articles[id]
	if !ok {
		return nil, shared.NotFound("article", "AdjustCounter")
	}
	field := articleCounter(&a, counter)
	if field == nil {
		return nil, shared.Validation("article", "AdjustCounter", "unknown counter")
	}
	if err := counterResult("article", *field+delta); err != nil {
		return nil, err
	}
	*field += delta
	r.db.t.articles[id] = a
	return &a, nil
}

func articleSortKey(a *article.Article, key string) float64 {
	switch key {
	case "updatedAt":
		return timeKey(a.UpdatedAt)
	case "articleLikes":
		return float64(a.Likes)
	case "articleViews":
		return float64(a.Views)
	case "articleCategory":
		// lexical order of the four categories
		switch a.Category {
		case article.CategoryFree:
			return 0
		case article.CategoryHumor:
			return 1
		case article.CategoryNews:
			return 2
		default:
			return 3
		}
	default:
		return timeKey(a.CreatedAt)
	}
}

func (r *ArticleRepository) List(ctx context.Context, s article.Search, p shared.Paging, viewerID string) (shared.Page[*article.Article], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("article.List"); err != nil {
		return shared.Page[*article.Article]{}, err
	}

	var items []*article.Article
	for _, a := range r.db.t.articles {
		if !in(a.Category, s.Categories) || !in(a.Status, s.Statuses) {
			continue
		}
		if s.MemberID != "" && a.MemberID != s.MemberID {
			continue
		}
		if s.Text != "" && !containsFold(a.Title, s.Text) {
			continue
		}
		cp := a
		cp.MeLiked = r.db.meLiked(viewerID, a.ID)
		cp.MemberData = r.db.profile(a.MemberID)
		items = append(items, &cp)
	}

	return paginate(items, p, func(a *article.Article) sortable {
		return sortable{id: a.ID, key: articleSortKey(a, p.Sort)}
	}), nil
}
