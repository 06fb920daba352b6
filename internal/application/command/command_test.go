package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/application/command"
	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []*notification.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, items ...*notification.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, it := range items {
		if it != nil {
			n.items = append(n.items, it)
		}
	}
}

type env struct {
	db       *memory.DB
	deps     command.Deps
	notifier *recordingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memory.New()
	n := &recordingNotifier{}
	svc := appengagement.NewService(appengagement.Config{
		UnitOfWork: db.UnitOfWork(),
		Likes:      db.Likes(),
		ViewScope:  engagement.ViewScopeGlobal,
		Logger:     zerolog.Nop(),
	})
	return &env{
		db:       db,
		notifier: n,
		deps: command.Deps{
			Members:    db.Members(),
			Watches:    db.Watches(),
			Articles:   db.Articles(),
			Engagement: svc,
			Notifier:   n,
			Now:        func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
		},
	}
}

func (e *env) member(t *testing.T, typ member.Type, status member.Status) *member.Member {
	t.Helper()
	m := &member.Member{ID: shared.NewID(), Type: typ, Status: status, Nick: "nick-" + shared.NewID()[:8], CreatedAt: time.Now()}
	require.NoError(t, e.db.Members().Create(context.Background(), m))
	return m
}

func (e *env) reloadMember(t *testing.T, id string) *member.Member {
	t.Helper()
	m, err := e.db.Members().GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (e *env) reloadWatch(t *testing.T, id string) *watch.Watch {
	t.Helper()
	w, err := e.db.Watches().GetByID(context.Background(), id)
	require.NoError(t, err)
	return w
}

func (e *env) watch(t *testing.T, owner string) *watch.Watch {
	t.Helper()
	w, err := command.NewWatchHandler(e.deps).Create(context.Background(), command.CreateWatchCommand{
		MemberID:  owner,
		Type:      watch.TypeAutomatic,
		Location:  watch.LocationSeoul,
		Address:   "Gangnam-gu",
		ModelName: "Submariner",
		Brand:     "Rolex",
		Price:     9800,
	})
	require.NoError(t, err)
	return w
}

func ptr[T any](v T) *T { return &v }

// ══════════════════════════════════════════════════════════════════════════════
// LIKE / VISIT
// ══════════════════════════════════════════════════════════════════════════════

func TestLikeTarget_TogglesWatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	user := e.member(t, member.TypeUser, member.StatusActive)
	w := e.watch(t, dealer.ID)
	h := command.NewLikeTargetHandler(e.deps)

	res, err := h.Handle(ctx, command.LikeTargetCommand{MemberID: user.ID, TargetID: w.ID, Group: engagement.GroupWatch})
	require.NoError(t, err)
	assert.Equal(t, appengagement.LikeAdded, res.Modifier)
	require.NotNil(t, res.Watch)
	assert.Equal(t, 1, res.Watch.Likes)
	require.Len(t, res.Watch.MeLiked, 1)
	assert.True(t, res.Watch.MeLiked[0].MyFavorite)

	res, err = h.Handle(ctx, command.LikeTargetCommand{MemberID: user.ID, TargetID: w.ID, Group: engagement.GroupWatch})
	require.NoError(t, err)
	assert.Equal(t, appengagement.LikeRemoved, res.Modifier)
	assert.Equal(t, 0, res.Watch.Likes)
	assert.Empty(t, res.Watch.MeLiked)

	require.Len(t, e.notifier.items, 1)
	assert.Equal(t, notification.TypeLike, e.notifier.items[0].Type)
	assert.Equal(t, dealer.ID, e.notifier.items[0].ReceiverID)
	assert.Equal(t, w.ID, e.notifier.items[0].WatchID)
}

func TestLikeTarget_RequiresVisibleTarget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.member(t, member.TypeUser, member.StatusActive)
	blocked := e.member(t, member.TypeDealer, member.StatusBlock)
	h := command.NewLikeTargetHandler(e.deps)

	_, err := h.Handle(ctx, command.LikeTargetCommand{MemberID: user.ID, TargetID: blocked.ID, Group: engagement.GroupMember})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, command.LikeTargetCommand{MemberID: user.ID, TargetID: "not-an-id", Group: engagement.GroupMember})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, command.LikeTargetCommand{MemberID: user.ID, TargetID: blocked.ID, Group: "SHOP"})
	assert.True(t, shared.IsValidation(err))
}

func TestVisitTarget_RecordsFirstViewOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.member(t, member.TypeUser, member.StatusActive)
	viewer := e.member(t, member.TypeUser, member.StatusActive)
	a, err := command.NewArticleHandler(e.deps).Create(ctx, command.CreateArticleCommand{
		MemberID: author.ID, Category: article.CategoryFree, Title: "Hello", Content: "First post",
	})
	require.NoError(t, err)
	h := command.NewVisitTargetHandler(e.deps)

	res, err := h.Handle(ctx, command.VisitTargetCommand{ViewerID: viewer.ID, TargetID: a.ID, Group: engagement.GroupArticle})
	require.NoError(t, err)
	assert.True(t, res.NewView)
	assert.Equal(t, 1, res.Article.Views)
	assert.Equal(t, []shared.MeLiked{}, res.Article.MeLiked)

	res, err = h.Handle(ctx, command.VisitTargetCommand{ViewerID: viewer.ID, TargetID: a.ID, Group: engagement.GroupArticle})
	require.NoError(t, err)
	assert.False(t, res.NewView)
	assert.Equal(t, 1, res.Article.Views)

	res, err = h.Handle(ctx, command.VisitTargetCommand{TargetID: a.ID, Group: engagement.GroupArticle})
	require.NoError(t, err)
	assert.False(t, res.NewView)
	assert.Nil(t, res.Article.MeLiked)
	assert.Equal(t, 1, res.Article.Views)
}

func TestVisitTarget_BlockedMemberIsVisible(t *testing.T) {
	e := newEnv(t)
	viewer := e.member(t, member.TypeUser, member.StatusActive)
	blocked := e.member(t, member.TypeDealer, member.StatusBlock)

	res, err := command.NewVisitTargetHandler(e.deps).Handle(context.Background(),
		command.VisitTargetCommand{ViewerID: viewer.ID, TargetID: blocked.ID, Group: engagement.GroupMember})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Member.Views)
	assert.Equal(t, 1, e.reloadMember(t, blocked.ID).Views)
}

// ══════════════════════════════════════════════════════════════════════════════
// WATCHES
// ══════════════════════════════════════════════════════════════════════════════

func TestCreateWatch_BrandAssignsExistingDealers(t *testing.T) {
	e := newEnv(t)
	brand := e.member(t, member.TypeBrand, member.StatusActive)
	d1 := e.member(t, member.TypeDealer, member.StatusActive)
	user := e.member(t, member.TypeUser, member.StatusActive)

	w, err := command.NewWatchHandler(e.deps).Create(context.Background(), command.CreateWatchCommand{
		MemberID: brand.ID, Type: watch.TypeMechanical, Location: watch.LocationBusan,
		Address: "Haeundae", ModelName: "Calatrava", Price: 32000,
		DealerIDs: []string{d1.ID, user.ID, shared.NewID()},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{d1.ID}, w.DealerIDs)
	assert.Equal(t, watch.StatusActive, w.Status)
	assert.Equal(t, 1, e.reloadMember(t, brand.ID).Watches)

	require.Len(t, e.notifier.items, 1)
	n := e.notifier.items[0]
	assert.Equal(t, notification.TypeNewWatch, n.Type)
	assert.Equal(t, d1.ID, n.ReceiverID)
	assert.Contains(t, n.Desc, brand.Nick)
}

func TestCreateWatch_DealerSellsOwnWatch(t *testing.T) {
	e := newEnv(t)
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	w := e.watch(t, dealer.ID)

	assert.Equal(t, []string{dealer.ID}, w.DealerIDs)
	assert.Empty(t, e.notifier.items)
}

func TestCreateWatch_Rejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.member(t, member.TypeUser, member.StatusActive)
	blocked := e.member(t, member.TypeDealer, member.StatusBlock)
	h := command.NewWatchHandler(e.deps)
	valid := command.CreateWatchCommand{Type: watch.TypeQuartz, Location: watch.LocationJeju, Address: "a", ModelName: "m", Price: 1}

	cmd := valid
	cmd.MemberID = user.ID
	_, err := h.Create(ctx, cmd)
	assert.True(t, shared.IsForbidden(err))

	cmd.MemberID = blocked.ID
	_, err = h.Create(ctx, cmd)
	assert.True(t, shared.IsForbidden(err))

	cmd.Location = "TOKYO"
	_, err = h.Create(ctx, cmd)
	assert.True(t, shared.IsValidation(err))
}

func TestUpdateWatch_TransitionsAdjustOwnerSlots(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	w1, w2 := e.watch(t, dealer.ID), e.watch(t, dealer.ID)
	h := command.NewWatchHandler(e.deps)
	require.Equal(t, 2, e.reloadMember(t, dealer.ID).Watches)

	updated, err := h.Update(ctx, command.UpdateWatchCommand{
		MemberID: dealer.ID, WatchID: w1.ID,
		Update: watch.Update{Price: ptr(7500.0)}, Status: ptr(watch.StatusSold),
	})
	require.NoError(t, err)
	assert.Equal(t, watch.StatusSold, updated.Status)
	assert.NotNil(t, updated.SoldAt)
	assert.Equal(t, 7500.0, e.reloadWatch(t, w1.ID).Price)
	assert.Equal(t, 1, e.reloadMember(t, dealer.ID).Watches)

	_, err = h.Update(ctx, command.UpdateWatchCommand{MemberID: dealer.ID, WatchID: w1.ID, Status: ptr(watch.StatusActive)})
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, 1, e.reloadMember(t, dealer.ID).Watches)

	_, err = h.Update(ctx, command.UpdateWatchCommand{MemberID: dealer.ID, WatchID: w2.ID, Status: ptr(watch.StatusHold)})
	require.NoError(t, err)
	assert.Equal(t, 1, e.reloadMember(t, dealer.ID).Watches)

	_, err = h.Update(ctx, command.UpdateWatchCommand{MemberID: dealer.ID, WatchID: w2.ID, Status: ptr(watch.StatusDelete)})
	require.NoError(t, err)
	assert.Equal(t, 0, e.reloadMember(t, dealer.ID).Watches)
}

func TestUpdateWatch_CounterFailureRollsBackTransition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	w := e.watch(t, dealer.ID)

	e.db.FailOn("member.AdjustCounter", errors.New("boom"))
	_, err := command.NewWatchHandler(e.deps).Update(ctx, command.UpdateWatchCommand{
		MemberID: dealer.ID, WatchID: w.ID, Status: ptr(watch.StatusSold),
	})
	require.Error(t, err)
	assert.Equal(t, watch.StatusActive, e.reloadWatch(t, w.ID).Status)
	assert.Equal(t, 1, e.reloadMember(t, dealer.ID).Watches)
}

func TestUpdateWatch_OnlyOwner(t *testing.T) {
	e := newEnv(t)
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	other := e.member(t, member.TypeDealer, member.StatusActive)
	w := e.watch(t, dealer.ID)

	_, err := command.NewWatchHandler(e.deps).Update(context.Background(), command.UpdateWatchCommand{
		MemberID: other.ID, WatchID: w.ID, Update: watch.Update{Color: ptr("blue")},
	})
	assert.True(t, shared.IsForbidden(err))
}

func TestPurgeWatch_OnlyDeleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	w := e.watch(t, dealer.ID)
	h := command.NewWatchHandler(e.deps)

	_, err := h.Purge(ctx, w.ID)
	assert.True(t, shared.IsValidation(err))

	_, err = h.Update(ctx, command.UpdateWatchCommand{MemberID: dealer.ID, WatchID: w.ID, Status: ptr(watch.StatusDelete)})
	require.NoError(t, err)
	_, err = h.Purge(ctx, w.ID)
	require.NoError(t, err)

	_, err = e.db.Watches().GetByID(ctx, w.ID)
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, 0, e.reloadMember(t, dealer.ID).Watches)
}

// ══════════════════════════════════════════════════════════════════════════════
// ARTICLES
// ══════════════════════════════════════════════════════════════════════════════

func TestArticle_CreateUpdateRemove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.member(t, member.TypeUser, member.StatusActive)
	stranger := e.member(t, member.TypeUser, member.StatusActive)
	h := command.NewArticleHandler(e.deps)

	a, err := h.Create(ctx, command.CreateArticleCommand{MemberID: author.ID, Category: article.CategoryNews, Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, article.StatusPublishing, a.Status)
	assert.Equal(t, 1, e.reloadMember(t, author.ID).Articles)

	_, err = h.Create(ctx, command.CreateArticleCommand{MemberID: author.ID, Category: article.CategoryHumor, Title: "t", Content: "c"})
	assert.True(t, shared.IsValidation(err))

	a, err = h.Update(ctx, command.UpdateArticleCommand{MemberID: author.ID, ArticleID: a.ID, Update: article.Update{Status: ptr(article.StatusDelete)}})
	require.NoError(t, err)
	assert.Equal(t, article.StatusDelete, a.Status)
	assert.Equal(t, 1, e.reloadMember(t, author.ID).Articles)

	_, err = h.Update(ctx, command.UpdateArticleCommand{MemberID: stranger.ID, ArticleID: a.ID, Update: article.Update{Status: ptr(article.StatusRemove)}})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, shared.MsgUpdateFailed, errMessage(err))

	_, err = h.Update(ctx, command.UpdateArticleCommand{MemberID: author.ID, ArticleID: a.ID, Update: article.Update{Status: ptr(article.StatusRemove)}})
	require.NoError(t, err)
	assert.Equal(t, 0, e.reloadMember(t, author.ID).Articles)

	_, err = e.db.Articles().GetByID(ctx, a.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestArticle_RemoveByAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.member(t, member.TypeUser, member.StatusActive)
	h := command.NewArticleHandler(e.deps)

	a, err := h.Create(ctx, command.CreateArticleCommand{MemberID: author.ID, Category: article.CategoryFree, Title: "t", Content: "c"})
	require.NoError(t, err)

	removed, err := h.RemoveByAdmin(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)
	assert.Equal(t, 0, e.reloadMember(t, author.ID).Articles)

	_, err = h.RemoveByAdmin(ctx, a.ID)
	assert.True(t, shared.IsNotFound(err))
}

func errMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMENTS
// ══════════════════════════════════════════════════════════════════════════════

func TestComment_CounterFollowsActiveComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	dealer := e.member(t, member.TypeDealer, member.StatusActive)
	user := e.member(t, member.TypeUser, member.StatusActive)
	w := e.watch(t, dealer.ID)
	h := command.NewCommentHandler(e.deps)

	c, err := h.Create(ctx, command.CreateCommentCommand{MemberID: user.ID, Group: engagement.GroupWatch, RefID: w.ID, Content: "Nice dial"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.reloadWatch(t, w.ID).Comments)
	require.Len(t, e.notifier.items, 1)
	assert.Equal(t, notification.TypeComment, e.notifier.items[0].Type)

	_, err = h.Update(ctx, command.UpdateCommentCommand{MemberID: user.ID, CommentID: c.ID, Content: ptr("Very nice dial")})
	require.NoError(t, err)
	assert.Equal(t, 1, e.reloadWatch(t, w.ID).Comments)

	_, err = h.Update(ctx, command.UpdateCommentCommand{MemberID: user.ID, CommentID: c.ID, Status: ptr(comment.StatusDelete)})
	require.NoError(t, err)
	assert.Equal(t, 0, e.reloadWatch(t, w.ID).Comments)

	_, err = h.Update(ctx, command.UpdateCommentCommand{MemberID: user.ID, CommentID: c.ID, Status: ptr(comment.StatusDelete)})
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, 0, e.reloadWatch(t, w.ID).Comments)

	_, err = h.RemoveByAdmin(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.reloadWatch(t, w.ID).Comments)
}

func TestComment_AdjustFailureRollsBackInsert(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.member(t, member.TypeUser, member.StatusActive)
	user := e.member(t, member.TypeUser, member.StatusActive)
	h := command.NewCommentHandler(e.deps)

	e.db.FailOn("member.AdjustCounter", errors.New("boom"))
	_, err := h.Create(ctx, command.CreateCommentCommand{MemberID: user.ID, Group: engagement.GroupMember, RefID: author.ID, Content: "hi"})
	require.Error(t, err)

	page, err := e.db.Comments().ListByRef(ctx, author.ID, shared.Paging{Page: 1, Limit: 10}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, e.reloadMember(t, author.ID).Comments)
	assert.Empty(t, e.notifier.items)
}

func TestComment_RemoveByAdminRequiresSoftDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.member(t, member.TypeUser, member.StatusActive)
	c, err := command.NewCommentHandler(e.deps).Create(ctx, command.CreateCommentCommand{
		MemberID: author.ID, Group: engagement.GroupMember, RefID: author.ID, Content: "self",
	})
	require.NoError(t, err)

	_, err = command.NewCommentHandler(e.deps).RemoveByAdmin(ctx, c.ID)
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, 1, e.reloadMember(t, author.ID).Comments)
	assert.Empty(t, e.notifier.items)
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

func TestMember_Updates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.member(t, member.TypeUser, member.StatusActive)
	h := command.NewMemberHandler(e.deps)

	got, err := h.UpdateProfile(ctx, command.UpdateProfileCommand{MemberID: m.ID, Update: member.ProfileUpdate{FullName: ptr("Kim Minjun")}})
	require.NoError(t, err)
	assert.Equal(t, "Kim Minjun", got.FullName)

	_, err = h.UpdateProfile(ctx, command.UpdateProfileCommand{MemberID: m.ID})
	assert.True(t, shared.IsValidation(err))

	got, err = h.UpdateByAdmin(ctx, command.UpdateMemberByAdminCommand{MemberID: m.ID, Update: member.AdminUpdate{Status: ptr(member.StatusBlock)}})
	require.NoError(t, err)
	assert.Equal(t, member.StatusBlock, got.Status)

	_, err = h.UpdateProfile(ctx, command.UpdateProfileCommand{MemberID: m.ID, Update: member.ProfileUpdate{Desc: ptr("x")}})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.UpdateByAdmin(ctx, command.UpdateMemberByAdminCommand{MemberID: m.ID, Update: member.AdminUpdate{Type: ptr(member.Type("GUEST"))}})
	assert.True(t, shared.IsValidation(err))
}
