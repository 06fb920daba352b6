package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ArticleRepository implements article.Repository over board_articles.
type ArticleRepository struct {
	q Querier
}

// NewArticleRepository creates an article repository over q.
func NewArticleRepository(q Querier) *ArticleRepository {
	return &ArticleRepository{q: q}
}

const articleColumns = `
	a.id, a.article_category, a.article_status, a.article_title, a.article_content, a.article_image,
	a.article_views, a.article_likes, a.article_comments, a.member_id, a.created_at, a.updated_at`

var articleSorts = map[string]string{
	"createdAt":       "a.created_at",
	"updatedAt":       "a.updated_at",
	"articleCategory": "a.article_category",
	"articleLikes":    "a.article_likes",
	"articleViews":    "a.article_views",
}

func articleDest(a *article.Article) []any {
	return []any{
		&a.ID, &a.Category, &a.Status, &a.Title, &a.Content, &a.Image,
		&a.Views, &a.Likes, &a.Comments, &a.MemberID, &a.CreatedAt, &a.UpdatedAt,
	}
}

func (r *ArticleRepository) Create(ctx context.Context, a *article.Article) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO board_articles (
			id, article_category, article_status, article_title, article_content, article_image,
			member_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, string(a.Category), string(a.Status), a.Title, a.Content, a.Image,
		a.MemberID, a.CreatedAt, a.UpdatedAt,
	)
	return mapError("article", "Create", err)
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string, statuses ...article.Status) (*article.Article, error) {
	f := filter{}
	f.eq("a.id", id)
	f.in("a.article_status", strs(statuses))

	a := &article.Article{}
	p := &member.Profile{}
	err := r.q.QueryRow(ctx, `SELECT `+articleColumns+`, `+profileColumns+`
		FROM board_articles a JOIN members m ON m.id = a.member_id`+f.where(), f.args...).
		Scan(append(articleDest(a), profileDest(p)...)...)
	if err != nil {
		return nil, mapError("article", "GetByID", err)
	}
	a.MemberData = p
	return a, nil
}

// ownedBy narrows a statement to the article id, optionally its owner and statuses.
func ownedBy(f *filter, id, ownerID string, statuses []article.Status) {
	f.eq("id", id)
	f.eq("member_id", ownerID)
	f.in("article_status", strs(statuses))
}

func (r *ArticleRepository) Update(ctx context.Context, id, ownerID string, upd article.Update, statuses ...article.Status) (*article.Article, error) {
	f := &filter{}
	var sets []string
	if upd.Status != nil {
		sets = append(sets, "article_status = "+f.arg(string(*upd.Status)))
	}
	if upd.Title != nil {
		sets = append(sets, "article_title = "+f.arg(*upd.Title))
	}
	if upd.Content != nil {
		sets = append(sets, "article_content = "+f.arg(*upd.Content))
	}
	if upd.Image != nil {
		sets = append(sets, "article_image = "+f.arg(*upd.Image))
	}
	sets = append(sets, "updated_at = "+f.arg(time.Now().UTC()))
	ownedBy(f, id, ownerID, statuses)

	a := &article.Article{}
	err := r.q.QueryRow(ctx, `UPDATE board_articles a SET `+strings.Join(sets, ", ")+
		f.where()+` RETURNING `+articleColumns, f.args...).Scan(articleDest(a)...)
	if IsNoRows(err) {
		return nil, shared.WrapError("article", "Update", shared.ErrNotFound, shared.MsgUpdateFailed, err)
	}
	if err != nil {
		return nil, mapError("article", "Update", err)
	}
	return a, nil
}

// Delete hard-deletes a matching article and returns the deleted row.
func (r *ArticleRepository) Delete(ctx context.Context, id, ownerID string, statuses ...article.Status) (*article.Article, error) {
	f := &filter{}
	ownedBy(f, id, ownerID, statuses)

	a := &article.Article{}
	err := r.q.QueryRow(ctx, `DELETE FROM board_articles a`+f.where()+` RETURNING `+articleColumns, f.args...).
		Scan(articleDest(a)...)
	if IsNoRows(err) {
		return nil, shared.WrapError("article", "Delete", shared.ErrNotFound, shared.MsgRemoveFailed, err)
	}
	if err != nil {
		return nil, mapError("article", "Delete", err)
	}
	return a, nil
}

func (r *ArticleRepository) AdjustCounter(ctx context.Context, id string, counter article.Counter, delta int) (*article.Article, error) {
	if counter.IsZero() {
		return nil, shared.Validation("article", "AdjustCounter", "unknown counter")
	}
	col := counter.Column()
	a := &article.Article{}
	err := r.q.QueryRow(ctx,
		`UPDATE board_articles a SET `+col+` = `+col+` + $2 WHERE a.id = $1 RETURNING `+articleColumns,
		id, delta,
	).Scan(articleDest(a)...)
	if err != nil {
		return nil, mapError("article", "AdjustCounter", err)
	}
	return a, nil
}

func (r *ArticleRepository) List(ctx context.Context, s article.Search, p shared.Paging, viewerID string) (shared.Page[*article.Article], error) {
	l := &listQuery{
		from:     "board_articles a",
		columns:  articleColumns,
		ownerCol: "a.member_id",
		likeRef:  "a.id",
		sorts:    articleSorts,
		tiebreak: "a.id",
	}
	l.where.in("a.article_category", strs(s.Categories))
	l.where.in("a.article_status", strs(s.Statuses))
	l.where.eq("a.member_id", s.MemberID)
	l.where.contains("a.article_title", s.Text)

	return fetchPage(ctx, r.q, "article", l, p, viewerID, func(rows pgx.Rows) (*article.Article, error) {
		a := &article.Article{}
		pr := &member.Profile{}
		var liked bool
		dest := append(articleDest(a), profileDest(pr)...)
		if err := rows.Scan(append(dest, &liked)...); err != nil {
			return nil, err
		}
		a.MemberData = pr
		a.MeLiked = meLiked(viewerID, a.ID, liked)
		return a, nil
	})
}
