package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/memory"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/redis"
)

type fakeTop struct {
	mu       sync.Mutex
	boards   map[string][]redis.RankEntry
	err      error
	failures int
	calls    int
}

func (f *fakeTop) Replace(_ context.Context, board string, entries []redis.RankEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	if f.boards == nil {
		f.boards = map[string][]redis.RankEntry{}
	}
	f.boards[board] = entries
	return nil
}

type fakeLocker struct {
	held bool
}

func (l *fakeLocker) TryLock(context.Context, string, string, time.Duration) (bool, error) {
	return !l.held, nil
}

func (l *fakeLocker) Unlock(context.Context, string, string) error { return nil }

type fixture struct {
	db      *memory.DB
	top     *fakeTop
	dealer  *member.Member
	user    *member.Member
	watchID string
}

func seed(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	now := time.Now().UTC()

	dealer := &member.Member{
		ID: shared.NewID(), Type: member.TypeDealer, Status: member.StatusActive, Nick: "dealer", Phone: "010",
		Watches: 3, Articles: 2, Likes: 1, Views: 4, Rank: 99, CreatedAt: now, UpdatedAt: now,
	}
	user := &member.Member{
		ID: shared.NewID(), Type: member.TypeUser, Status: member.StatusActive, Nick: "user", Phone: "011",
		Watches: 1, Likes: 7, Rank: 0, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Members().Create(ctx, dealer))
	require.NoError(t, db.Members().Create(ctx, user))

	w := &watch.Watch{
		ID: shared.NewID(), Type: watch.TypeAutomatic, Status: watch.StatusActive, Location: watch.LocationSeoul,
		Address: "Gangnam", ModelName: "Submariner", Brand: "Rolex", Price: 9000,
		Likes: 5, Views: 8, Rank: 3, MemberID: dealer.ID, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Watches().Create(ctx, w))

	return &fixture{db: db, top: &fakeTop{}, dealer: dealer, user: user, watchID: w.ID}
}

func (f *fixture) runAll(t *testing.T) []error {
	t.Helper()
	ctx := context.Background()
	cfg := RankConfig{Concurrency: 4, TopListSize: 10}
	log := zerolog.Nop()

	phases := []interface{ Run(context.Context) error }{
		NewRankRollbackJob(f.db.WatchRanks(), f.db.MemberRanks(), nil, cfg, log),
		NewRankWatchesJob(f.db.WatchRanks(), f.top, nil, cfg, log),
		NewRankMembersJob(f.db.MemberRanks(), f.top, nil, cfg, log),
	}
	var errs []error
	for _, p := range phases {
		errs = append(errs, p.Run(ctx))
	}
	return errs
}

func TestRankBatch_ComputesScores(t *testing.T) {
	f := seed(t)

	for _, err := range f.runAll(t) {
		require.NoError(t, err)
	}

	ctx := context.Background()
	w, err := f.db.Watches().GetByID(ctx, f.watchID)
	require.NoError(t, err)
	assert.Equal(t, 5*2+8, w.Rank)

	d, err := f.db.Members().GetByID(ctx, f.dealer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3*5+2*3+1*2+4, d.Rank)

	u, err := f.db.Members().GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Rank, "only dealers are ranked")

	assert.Equal(t, []redis.RankEntry{{ID: f.watchID, Rank: 18}}, f.top.boards[redis.BoardWatches])
	assert.Equal(t, []redis.RankEntry{{ID: f.dealer.ID, Rank: 27}}, f.top.boards[redis.BoardDealers])
}

func TestRankBatch_Idempotent(t *testing.T) {
	f := seed(t)
	ctx := context.Background()

	f.runAll(t)
	first, err := f.db.Members().GetByID(ctx, f.dealer.ID)
	require.NoError(t, err)

	f.runAll(t)
	second, err := f.db.Members().GetByID(ctx, f.dealer.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Rank, second.Rank)
}

func TestRankBatch_SkipsAlreadyRanked(t *testing.T) {
	f := seed(t)
	job := NewRankMembersJob(f.db.MemberRanks(), nil, nil, RankConfig{}, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))

	d, err := f.db.Members().GetByID(context.Background(), f.dealer.ID)
	require.NoError(t, err)
	assert.Equal(t, 99, d.Rank, "without a rollback the stale rank stays")
	assert.Equal(t, 0, job.LastStats().Selected)
}

func TestRankBatch_WriteFailureIsAggregated(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	cfg := RankConfig{Concurrency: 2}

	require.NoError(t, NewRankRollbackJob(f.db.WatchRanks(), f.db.MemberRanks(), nil, cfg, zerolog.Nop()).Run(ctx))

	// a second dealer keeps the phase going past the failure
	other := &member.Member{ID: shared.NewID(), Type: member.TypeDealer, Status: member.StatusActive, Nick: "other", Phone: "012"}
	require.NoError(t, f.db.Members().Create(ctx, other))

	f.db.FailOn("member.SetRank", errors.New("disk full"))
	job := NewRankMembersJob(f.db.MemberRanks(), f.top, nil, cfg, zerolog.Nop())
	err := job.Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPhaseIncomplete)
	stats := job.LastStats()
	assert.Equal(t, 2, stats.Selected)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, f.top.boards[redis.BoardDealers], 2, "top list is still published")
}

func TestRankBatch_TopListFailureIsBestEffort(t *testing.T) {
	f := seed(t)
	f.top.err = errors.New("redis down")

	for _, err := range f.runAll(t) {
		assert.NoError(t, err)
	}
}

func TestRankBatch_TopListWriteIsRetried(t *testing.T) {
	f := seed(t)
	f.top.failures = 1

	for _, err := range f.runAll(t) {
		assert.NoError(t, err)
	}
	assert.NotEmpty(t, f.top.boards[redis.BoardWatches])
	assert.Len(t, f.top.boards[redis.BoardDealers], 1)
	assert.Equal(t, 3, f.top.calls, "one retried watches write plus one dealers write")
}

func TestRankBatch_LockedPhaseIsSkipped(t *testing.T) {
	f := seed(t)
	cfg := RankConfig{LockTTL: time.Minute}
	job := NewRankRollbackJob(f.db.WatchRanks(), f.db.MemberRanks(), &fakeLocker{held: true}, cfg, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, job.LastStats().Skipped)

	d, err := f.db.Members().GetByID(context.Background(), f.dealer.ID)
	require.NoError(t, err)
	assert.Equal(t, 99, d.Rank)
}

func TestTopOf(t *testing.T) {
	items := []rankItem{{"b", 5}, {"a", 5}, {"c", 9}, {"d", 1}}
	assert.Equal(t, []redis.RankEntry{{ID: "c", Rank: 9}, {ID: "a", Rank: 5}}, topOf(items, 2))
}

type fakeReconciler struct {
	fixed map[string]int64
	err   error
}

func (f fakeReconciler) Reconcile(context.Context) (map[string]int64, error) { return f.fixed, f.err }

func TestReconcileCountersJob(t *testing.T) {
	ok := NewReconcileCountersJob(fakeReconciler{fixed: map[string]int64{"watches.watch_likes": 2}}, zerolog.Nop())
	assert.NoError(t, ok.Run(context.Background()))

	failing := NewReconcileCountersJob(fakeReconciler{err: errors.New("boom")}, zerolog.Nop())
	assert.ErrorContains(t, failing.Run(context.Background()), "boom")
}
