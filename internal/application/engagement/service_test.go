package engagement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/memory"
)

type fixture struct {
	db      *memory.DB
	svc     *appengagement.Service
	viewer  string
	owner   string
	watchID string
	artID   string
}

func newFixture(t *testing.T, scope engagement.ViewScope) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	now := time.Now().UTC()

	f := &fixture{db: db, viewer: shared.NewID(), owner: shared.NewID(), watchID: shared.NewID(), artID: shared.NewID()}

	require.NoError(t, db.Members().Create(ctx, &member.Member{ID: f.viewer, Nick: "viewer", Type: member.TypeUser, Status: member.StatusActive, CreatedAt: now}))
	require.NoError(t, db.Members().Create(ctx, &member.Member{ID: f.owner, Nick: "owner", Type: member.TypeDealer, Status: member.StatusActive, CreatedAt: now}))
	require.NoError(t, db.Watches().Create(ctx, &watch.Watch{ID: f.watchID, MemberID: f.owner, Status: watch.StatusActive, CreatedAt: now}))
	require.NoError(t, db.Articles().Create(ctx, &article.Article{ID: f.artID, MemberID: f.owner, Status: article.StatusPublishing, Category: article.CategoryFree, CreatedAt: now}))

	f.svc = appengagement.NewService(appengagement.Config{
		UnitOfWork: db.UnitOfWork(),
		Likes:      db.Likes(),
		ViewScope:  scope,
		Logger:     zerolog.Nop(),
	})
	return f
}

func (f *fixture) watchLikes(t *testing.T) int {
	w, err := f.db.Watches().GetByID(context.Background(), f.watchID)
	require.NoError(t, err)
	return w.Likes
}

func TestRecordView_Idempotent(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	v, err := f.svc.RecordView(ctx, f.viewer, f.artID, engagement.GroupArticle)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, engagement.GroupArticle, v.Group)

	a, err := f.db.Articles().GetByID(ctx, f.artID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Views)

	v, err = f.svc.RecordView(ctx, f.viewer, f.artID, engagement.GroupArticle)
	require.NoError(t, err)
	assert.Nil(t, v)

	a, err = f.db.Articles().GetByID(ctx, f.artID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Views)
}

func TestRecordView_Scope(t *testing.T) {
	ctx := context.Background()

	// Global scope: a view in one group counts for every group sharing the id.
	f := newFixture(t, engagement.ViewScopeGlobal)
	_, err := f.svc.RecordView(ctx, f.viewer, f.owner, engagement.GroupMember)
	require.NoError(t, err)
	v, err := f.db.Views().InsertIfAbsent(ctx, &engagement.View{ID: shared.NewID(), MemberID: f.viewer, RefID: f.owner, Group: engagement.GroupWatch}, engagement.ViewScopeGlobal)
	require.NoError(t, err)
	assert.False(t, v)

	// Group scope keys by group as well.
	f = newFixture(t, engagement.ViewScopeGroup)
	_, err = f.svc.RecordView(ctx, f.viewer, f.owner, engagement.GroupMember)
	require.NoError(t, err)
	v, err = f.db.Views().InsertIfAbsent(ctx, &engagement.View{ID: shared.NewID(), MemberID: f.viewer, RefID: f.owner, Group: engagement.GroupWatch}, engagement.ViewScopeGroup)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestRecordView_Validation(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	_, err := f.svc.RecordView(ctx, "", f.artID, engagement.GroupArticle)
	assert.True(t, shared.IsValidation(err))

	_, err = f.svc.RecordView(ctx, f.viewer, f.artID, engagement.Group("POST"))
	assert.True(t, shared.IsValidation(err))
}

func TestRecordView_MissingTargetRollsBack(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	_, err := f.svc.RecordView(ctx, f.viewer, shared.NewID(), engagement.GroupWatch)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
	assert.Zero(t, f.db.Views().(*memory.ViewRepository).Count())
}

func TestToggleLike_Involution(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	want := []int{appengagement.LikeAdded, appengagement.LikeRemoved, appengagement.LikeAdded, appengagement.LikeRemoved}
	for i, w := range want {
		m, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, w, m, "call %d", i)
	}

	assert.Equal(t, 0, f.watchLikes(t))
	assert.Zero(t, f.db.Likes().(*memory.LikeRepository).Count())
}

func TestToggleLike_NetDeltaZero(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	m, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.NoError(t, err)
	assert.Equal(t, 1, m)
	assert.Equal(t, 1, f.watchLikes(t))

	m, err = f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.NoError(t, err)
	assert.Equal(t, -1, m)
	assert.Equal(t, 0, f.watchLikes(t))
}

func TestToggleLike_MemberTargetAdjustsMemberLikes(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	_, err := f.svc.ToggleLike(ctx, f.viewer, f.owner, engagement.GroupMember)
	require.NoError(t, err)

	m, err := f.db.Members().GetByID(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Likes)
}

func TestToggleLike_RaceIsNotAnError(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	f.db.FailOn("like.Insert", shared.NewDomainError("like", "Insert", shared.ErrAlreadyExists, "duplicate"))

	m, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.NoError(t, err)
	assert.Equal(t, appengagement.LikeRaced, m)
	assert.Equal(t, 0, f.watchLikes(t))
}

func TestToggleLike_InsertFailureIsCreateFailed(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	f.db.FailOn("like.Insert", errors.New("disk full"))

	_, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Equal(t, shared.MsgCreateFailed, shared.ClientMessage(err))
}

func TestToggleLike_CounterFailureRollsBackFact(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	f.db.FailOn("watch.AdjustCounter", errors.New("connection reset"))

	_, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.Error(t, err)
	assert.False(t, shared.IsPartialFailure(err))
	assert.Zero(t, f.db.Likes().(*memory.LikeRepository).Count())
	assert.Equal(t, 0, f.watchLikes(t))

	// The next toggle starts from the absent state again.
	m, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.NoError(t, err)
	assert.Equal(t, appengagement.LikeAdded, m)
}

func TestToggleLike_CommitFailureIsPartial(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	f.db.FailOn("commit", errors.New("broken pipe"))

	_, err := f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.Error(t, err)
	assert.True(t, shared.IsPartialFailure(err))
}

func TestCheckLikeExistence(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()

	got, err := f.svc.CheckLikeExistence(ctx, f.viewer, f.watchID)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.svc.ToggleLike(ctx, f.viewer, f.watchID, engagement.GroupWatch)
	require.NoError(t, err)

	got, err = f.svc.CheckLikeExistence(ctx, f.viewer, f.watchID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, shared.MeLiked{MemberID: f.viewer, LikeRefID: f.watchID, MyFavorite: true}, got[0])

	got, err = f.svc.CheckLikeExistence(ctx, "", f.watchID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCounterEditor_NeverNegative(t *testing.T) {
	f := newFixture(t, engagement.ViewScopeGlobal)
	ctx := context.Background()
	editor := appengagement.NewCounterEditor(f.db, nil)

	// paired soft-delete / restore cycles
	for i := 0; i < 3; i++ {
		m, err := editor.AdjustMember(ctx, f.owner, member.CounterWatches, 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.Watches, 0)
		m, err = editor.AdjustMember(ctx, f.owner, member.CounterWatches, -1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.Watches, 0)
	}

	_, err := editor.AdjustMember(ctx, f.owner, member.CounterWatches, -1)
	assert.True(t, shared.IsValidation(err))

	_, err = editor.AdjustMember(ctx, f.owner, member.Counter{}, 1)
	assert.True(t, shared.IsValidation(err))

	_, err = editor.AdjustWatch(ctx, shared.NewID(), watch.CounterViews, 1)
	assert.True(t, shared.IsNotFound(err))
}
