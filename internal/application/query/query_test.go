package query_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/application/query"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/memory"
)

type fakeTopLists struct {
	boards map[string][]string
	err    error
}

func (f *fakeTopLists) TopIDs(ctx context.Context, board string, n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids, ok := f.boards[board]
	if !ok {
		return nil, errors.New("cache miss")
	}
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func newDeps(db *memory.DB, top query.TopLists) query.Deps {
	return query.Deps{
		Members:       db.Members(),
		Watches:       db.Watches(),
		Articles:      db.Articles(),
		Comments:      db.Comments(),
		Notifications: db.Notifications(),
		TopLists:      top,
		MaxLimit:      100,
		Logger:        zerolog.Nop(),
	}
}

func seedMember(t *testing.T, db *memory.DB, typ member.Type, rank int) *member.Member {
	t.Helper()
	m := &member.Member{ID: shared.NewID(), Type: typ, Status: member.StatusActive, Nick: "m-" + shared.NewID()[:8], Rank: rank, CreatedAt: time.Now()}
	require.NoError(t, db.Members().Create(context.Background(), m))
	return m
}

func seedArticles(t *testing.T, db *memory.DB, owner string, n int, status article.Status) []string {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		a := &article.Article{
			ID: shared.NewID(), Category: article.CategoryFree, Status: status,
			Title: fmt.Sprintf("post %02d", i), Content: "c", MemberID: owner,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Articles().Create(context.Background(), a))
		ids[i] = a.ID
	}
	return ids
}

func TestArticleSearch_PagesKeepTotal(t *testing.T) {
	db := memory.New()
	owner := seedMember(t, db, member.TypeUser, 0)
	seedArticles(t, db, owner.ID, 25, article.StatusPublishing)
	seedArticles(t, db, owner.ID, 3, article.StatusDelete)
	q := query.NewArticleQueries(newDeps(db, nil))

	seen := map[string]bool{}
	for page, want := range map[int]int{1: 10, 2: 10, 3: 5} {
		res, err := q.Search(context.Background(), query.ArticleSearch{Paging: shared.Paging{Page: page, Limit: 10}})
		require.NoError(t, err)
		assert.Equal(t, 25, res.Total, "page %d", page)
		assert.Len(t, res.List, want, "page %d", page)
		for _, a := range res.List {
			assert.False(t, seen[a.ID], "article %s returned twice", a.ID)
			seen[a.ID] = true
			require.NotNil(t, a.MemberData)
		}
	}
	assert.Len(t, seen, 25)
}

func TestArticleSearch_Ordering(t *testing.T) {
	db := memory.New()
	owner := seedMember(t, db, member.TypeUser, 0)
	ids := seedArticles(t, db, owner.ID, 3, article.StatusPublishing)
	q := query.NewArticleQueries(newDeps(db, nil))

	res, err := q.Search(context.Background(), query.ArticleSearch{Paging: shared.Paging{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, res.List, 3)
	assert.Equal(t, ids[2], res.List[0].ID, "newest first by default")

	res, err = q.Search(context.Background(), query.ArticleSearch{Paging: shared.Paging{Page: 1, Limit: 10, Direction: "asc"}})
	require.NoError(t, err)
	assert.Equal(t, ids[0], res.List[0].ID)
}

func TestArticleSearch_NoMatchIsEmptyPage(t *testing.T) {
	db := memory.New()
	owner := seedMember(t, db, member.TypeUser, 0)
	seedArticles(t, db, owner.ID, 2, article.StatusPublishing)
	q := query.NewArticleQueries(newDeps(db, nil))

	res, err := q.Search(context.Background(), query.ArticleSearch{Text: "zzz", Paging: shared.Paging{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.List)
	assert.Empty(t, res.List)
}

func TestWatchSearch_NoMatchIsEmptyPage(t *testing.T) {
	db := memory.New()
	q := query.NewWatchQueries(newDeps(db, nil))

	res, err := q.Search(context.Background(), "", watch.Search{Text: "zzz"}, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.List)
	assert.Empty(t, res.List)
}

func TestArticleMine_IncludesSoftDeleted(t *testing.T) {
	db := memory.New()
	owner := seedMember(t, db, member.TypeUser, 0)
	other := seedMember(t, db, member.TypeUser, 0)
	seedArticles(t, db, owner.ID, 2, article.StatusPublishing)
	seedArticles(t, db, owner.ID, 1, article.StatusDelete)
	seedArticles(t, db, other.ID, 4, article.StatusPublishing)
	q := query.NewArticleQueries(newDeps(db, nil))

	res, err := q.Mine(context.Background(), query.ArticleSearch{ViewerID: owner.ID, Paging: shared.Paging{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)

	res, err = q.ByAdmin(context.Background(), query.AdminArticleSearch{Status: article.StatusDelete, Paging: shared.Paging{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestPaging_Rejected(t *testing.T) {
	db := memory.New()
	deps := newDeps(db, nil)
	deps.MaxLimit = 50
	q := query.NewArticleQueries(deps)
	ctx := context.Background()

	_, err := q.Search(ctx, query.ArticleSearch{Paging: shared.Paging{Page: 0, Limit: 10}})
	assert.True(t, shared.IsValidation(err))

	_, err = q.Search(ctx, query.ArticleSearch{Paging: shared.Paging{Page: 1, Limit: 51}})
	assert.True(t, shared.IsValidation(err))

	_, err = q.Search(ctx, query.ArticleSearch{Paging: shared.Paging{Page: 1, Limit: 10, Sort: "articleTitle"}})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, shared.ClientMessage(err), "articleLikes")

	_, err = q.Search(ctx, query.ArticleSearch{Category: "POETRY", Paging: shared.Paging{Page: 1, Limit: 10}})
	assert.True(t, shared.IsValidation(err))
}

func TestWatchSearch_DefaultsToActive(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	dealer := seedMember(t, db, member.TypeDealer, 0)
	for i, st := range []watch.Status{watch.StatusActive, watch.StatusActive, watch.StatusHold, watch.StatusSold} {
		require.NoError(t, db.Watches().Create(ctx, &watch.Watch{
			ID: shared.NewID(), Status: st, Type: watch.TypeQuartz, Location: watch.LocationSeoul,
			ModelName: fmt.Sprintf("model %d", i), Price: float64(1000 * (i + 1)), MemberID: dealer.ID, CreatedAt: time.Now(),
		}))
	}
	q := query.NewWatchQueries(newDeps(db, nil))

	res, err := q.Search(ctx, "", watch.Search{}, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	for _, w := range res.List {
		assert.Nil(t, w.MeLiked, "anonymous viewer carries no meLiked")
	}

	res, err = q.Search(ctx, "", watch.Search{Statuses: []watch.Status{watch.StatusHold, watch.StatusSold}}, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = q.Search(ctx, "", watch.Search{Prices: &watch.PriceRange{Start: 50000, End: 90000}}, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	_, err = q.Search(ctx, "", watch.Search{Prices: &watch.PriceRange{Start: 9, End: 1}}, shared.Paging{Page: 1, Limit: 10})
	assert.True(t, shared.IsValidation(err))
}

func TestWatchFavorites(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	dealer := seedMember(t, db, member.TypeDealer, 0)
	viewer := seedMember(t, db, member.TypeUser, 0)
	w := &watch.Watch{ID: shared.NewID(), Status: watch.StatusActive, MemberID: dealer.ID, CreatedAt: time.Now()}
	require.NoError(t, db.Watches().Create(ctx, w))
	require.NoError(t, db.Likes().Insert(ctx, &engagement.Like{
		ID: shared.NewID(), MemberID: viewer.ID, RefID: w.ID, Group: engagement.GroupWatch, UpdatedAt: time.Now(),
	}))
	q := query.NewWatchQueries(newDeps(db, nil))

	res, err := q.Favorites(ctx, viewer.ID, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, w.ID, res.List[0].ID)

	res, err = q.Visited(ctx, viewer.ID, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.List)

	_, err = q.Favorites(ctx, "", shared.Paging{Page: 1, Limit: 10})
	assert.True(t, shared.IsValidation(err))
}

func TestTopDealers_CacheThenDatabase(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	low := seedMember(t, db, member.TypeDealer, 5)
	high := seedMember(t, db, member.TypeDealer, 27)
	seedMember(t, db, member.TypeUser, 100)

	top := &fakeTopLists{boards: map[string][]string{member.RankBoard: {low.ID, high.ID, shared.NewID()}}}
	q := query.NewMemberQueries(newDeps(db, top))

	got, err := q.TopDealers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, low.ID, got[0].ID, "cache order wins")

	top.err = errors.New("redis down")
	got, err = q.TopDealers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, high.ID, got[0].ID)
	assert.Equal(t, low.ID, got[1].ID)

	got, err = query.NewMemberQueries(newDeps(db, nil)).TopDealers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, high.ID, got[0].ID)
}

func TestTopWatches_FromDatabase(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	dealer := seedMember(t, db, member.TypeDealer, 0)
	for _, rank := range []int{3, 18, 7} {
		require.NoError(t, db.Watches().Create(ctx, &watch.Watch{ID: shared.NewID(), Status: watch.StatusActive, MemberID: dealer.ID, Rank: rank, CreatedAt: time.Now()}))
	}
	got, err := query.NewWatchQueries(newDeps(db, &fakeTopLists{})).Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 18, got[0].Rank)
	assert.Equal(t, 7, got[1].Rank)
}

func TestDealersAndBrands(t *testing.T) {
	db := memory.New()
	seedMember(t, db, member.TypeDealer, 0)
	seedMember(t, db, member.TypeDealer, 0)
	seedMember(t, db, member.TypeBrand, 0)
	q := query.NewMemberQueries(newDeps(db, nil))

	res, err := q.Dealers(context.Background(), "", "", shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = q.Brands(context.Background(), "", "", shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = q.ByAdmin(context.Background(), member.Filter{Statuses: []member.Status{"GONE"}}, shared.Paging{Page: 1, Limit: 10})
	assert.True(t, shared.IsValidation(err))
}

func TestComments_EmptyPage(t *testing.T) {
	db := memory.New()
	q := query.NewCommentQueries(newDeps(db, nil))
	ctx := context.Background()

	res, err := q.ByRef(ctx, shared.NewID(), shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.List)

	author := seedMember(t, db, member.TypeUser, 0)
	target := seedMember(t, db, member.TypeUser, 0)
	for i, st := range []comment.Status{comment.StatusActive, comment.StatusDelete} {
		require.NoError(t, db.Comments().Create(ctx, &comment.Comment{
			ID: shared.NewID(), Status: st, Group: engagement.GroupMember, RefID: target.ID,
			MemberID: author.ID, Content: fmt.Sprint(i), CreatedAt: time.Now(),
		}))
	}
	res, err = q.ByRef(ctx, target.ID, shared.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = q.ByRef(ctx, target.ID, shared.Paging{Page: 1, Limit: 10, Sort: "commentContent"})
	assert.True(t, shared.IsValidation(err))
}
