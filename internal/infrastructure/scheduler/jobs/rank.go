// Package jobs contains the scheduled jobs of Timory Hub.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/watch"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/redis"
	"github.com/timory/timory-hub/pkg/logger"
	"github.com/timory/timory-hub/pkg/retry"
)

// Job names.
const (
	NameRankRollback = "rank_rollback"
	NameRankWatches  = "rank_watches"
	NameRankMembers  = "rank_members"
)

// RankPhases lists the rank jobs in execution order.
var RankPhases = []string{NameRankRollback, NameRankWatches, NameRankMembers}

// ErrPhaseIncomplete is returned when some entity writes of a phase failed.
var ErrPhaseIncomplete = errors.New("rank phase incomplete")

// TopListWriter stores the ranked top list of a board.
type TopListWriter interface {
	Replace(ctx context.Context, board string, entries []redis.RankEntry) error
}

// Locker guards a phase against concurrent runs on other workers.
type Locker interface {
	TryLock(ctx context.Context, resource, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, resource, owner string) error
}

// RankConfig configures the rank phases.
type RankConfig struct {
	// Concurrency bounds parallel entity writes within a phase.
	Concurrency int

	// TopListSize is the number of entries written to the top list.
	TopListSize int

	// LockTTL bounds how long a phase lock is held. Zero disables locking.
	LockTTL time.Duration
}

func (c RankConfig) normalized() RankConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 16
	}
	if c.TopListSize <= 0 {
		c.TopListSize = 50
	}
	return c
}

// RankStats describes one phase run.
type RankStats struct {
	Phase     string
	StartedAt time.Time
	Duration  time.Duration
	Selected  int
	Updated   int
	Failed    int
	Skipped   bool
}

// rankBase holds what every phase shares.
type rankBase struct {
	name   string
	desc   string
	cfg    RankConfig
	locker Locker
	logger zerolog.Logger
	last   *atomic.Pointer[RankStats]
}

func newRankBase(name, desc string, cfg RankConfig, locker Locker, log zerolog.Logger) rankBase {
	return rankBase{
		name:   name,
		desc:   desc,
		cfg:    cfg.normalized(),
		locker: locker,
		logger: log.With().Str(logger.KeyJob, name).Logger(),
		last:   new(atomic.Pointer[RankStats]),
	}
}

func (b *rankBase) Name() string        { return b.name }
func (b *rankBase) Description() string { return b.desc }

// LastStats returns the stats of the most recent run, nil before the first.
func (b *rankBase) LastStats() *RankStats { return b.last.Load() }

// guarded runs fn under the phase lock when a locker is configured.
// A lock held elsewhere skips the run without error.
func (b *rankBase) guarded(ctx context.Context, fn func(ctx context.Context, stats *RankStats) error) error {
	stats := &RankStats{Phase: b.name, StartedAt: time.Now()}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		b.last.Store(stats)
	}()

	if b.locker != nil && b.cfg.LockTTL > 0 {
		owner := uuid.NewString()
		ok, err := b.locker.TryLock(ctx, b.name, owner, b.cfg.LockTTL)
		if err != nil {
			b.logger.Warn().Err(err).Msg("phase lock unavailable, running unguarded")
		} else if !ok {
			stats.Skipped = true
			b.logger.Info().Msg("phase locked by another worker, skipping")
			return nil
		} else {
			defer func() {
				if err := b.locker.Unlock(context.WithoutCancel(ctx), b.name, owner); err != nil {
					b.logger.Warn().Err(err).Msg("phase unlock failed")
				}
			}()
		}
	}

	return fn(ctx, stats)
}

// rankItem is one entity write of a phase.
type rankItem struct {
	id   string
	rank int
}

// writeAll applies set to every item on a bounded errgroup. Failures are
// counted and logged; the remaining writes still run.
func (b *rankBase) writeAll(ctx context.Context, items []rankItem, stats *RankStats, set func(ctx context.Context, id string, rank int) error) error {
	stats.Selected = len(items)

	var (
		mu   sync.Mutex
		errs []error
		ok   int
	)

	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)
	for _, it := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", it.id, err))
				mu.Unlock()
				return nil
			}
			err := set(ctx, it.id, it.rank)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", it.id, err))
				b.logger.Error().Err(err).Str("id", it.id).Msg("rank write failed")
				return nil
			}
			ok++
			return nil
		})
	}
	_ = g.Wait()

	stats.Updated = ok
	stats.Failed = len(errs)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s %d of %d writes failed: %w",
			ErrPhaseIncomplete, b.name, len(errs), len(items), errors.Join(errs...))
	}
	return nil
}

// topOf returns the n highest ranked items, ties by id.
func topOf(items []rankItem, n int) []redis.RankEntry {
	sorted := make([]rankItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].rank != sorted[j].rank {
			return sorted[i].rank > sorted[j].rank
		}
		return sorted[i].id < sorted[j].id
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]redis.RankEntry, len(sorted))
	for i, it := range sorted {
		out[i] = redis.RankEntry{ID: it.id, Rank: it.rank}
	}
	return out
}

// publishTop writes the top list with a short retry. Failures are logged only.
func (b *rankBase) publishTop(ctx context.Context, w TopListWriter, board string, items []rankItem) {
	if w == nil {
		return
	}
	entries := topOf(items, b.cfg.TopListSize)
	err := retry.Do(ctx, func(ctx context.Context) error {
		return w.Replace(ctx, board, entries)
	}, retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		b.logger.Debug().Err(err).Str("board", board).Int("attempt", attempt).Dur("delay", delay).Msg("retrying top list write")
	}))
	if err != nil {
		b.logger.Warn().Err(err).Str("board", board).Msg("top list write failed")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLLBACK
// ══════════════════════════════════════════════════════════════════════════════

// RankRollbackJob zeroes the ranks of every ACTIVE watch and ACTIVE dealer.
type RankRollbackJob struct {
	rankBase
	watches watch.RankRepository
	members member.RankRepository
}

// NewRankRollbackJob creates the rollback phase.
func NewRankRollbackJob(watches watch.RankRepository, members member.RankRepository, locker Locker, cfg RankConfig, log zerolog.Logger) *RankRollbackJob {
	return &RankRollbackJob{
		rankBase: newRankBase(NameRankRollback, "Resets watchRank and dealer memberRank to 0", cfg, locker, log),
		watches:  watches,
		members:  members,
	}
}

// Run resets both tables. A failing reset does not stop the other.
func (j *RankRollbackJob) Run(ctx context.Context) error {
	return j.guarded(ctx, func(ctx context.Context, stats *RankStats) error {
		var errs []error

		n, err := j.watches.ResetRanks(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("reset watch ranks: %w", err))
		}
		stats.Updated += int(n)

		m, err := j.members.ResetDealerRanks(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("reset dealer ranks: %w", err))
		}
		stats.Updated += int(m)
		stats.Failed = len(errs)

		j.logger.Info().Int64("watches", n).Int64("dealers", m).Msg("ranks reset")
		return errors.Join(errs...)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// WATCH RANK
// ══════════════════════════════════════════════════════════════════════════════

// RankWatchesJob computes watchRank for every unranked ACTIVE watch.
type RankWatchesJob struct {
	rankBase
	watches watch.RankRepository
	top     TopListWriter
}

// NewRankWatchesJob creates the watch rank phase. top may be nil.
func NewRankWatchesJob(watches watch.RankRepository, top TopListWriter, locker Locker, cfg RankConfig, log zerolog.Logger) *RankWatchesJob {
	return &RankWatchesJob{
		rankBase: newRankBase(NameRankWatches, "Sets watchRank = likes*2 + views on ACTIVE watches", cfg, locker, log),
		watches:  watches,
		top:      top,
	}
}

func (j *RankWatchesJob) Run(ctx context.Context) error {
	return j.guarded(ctx, func(ctx context.Context, stats *RankStats) error {
		list, err := j.watches.ListUnranked(ctx)
		if err != nil {
			return fmt.Errorf("list unranked watches: %w", err)
		}

		items := make([]rankItem, len(list))
		for i, w := range list {
			items[i] = rankItem{id: w.ID, rank: w.RankScore()}
		}

		err = j.writeAll(ctx, items, stats, j.watches.SetRank)
		j.publishTop(ctx, j.top, redis.BoardWatches, items)

		j.logger.Info().Int("selected", stats.Selected).Int("updated", stats.Updated).Int("failed", stats.Failed).Msg("watch ranks computed")
		return err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER RANK
// ══════════════════════════════════════════════════════════════════════════════

// RankMembersJob computes memberRank for every unranked ACTIVE dealer.
type RankMembersJob struct {
	rankBase
	members member.RankRepository
	top     TopListWriter
}

// NewRankMembersJob creates the dealer rank phase. top may be nil.
func NewRankMembersJob(members member.RankRepository, top TopListWriter, locker Locker, cfg RankConfig, log zerolog.Logger) *RankMembersJob {
	return &RankMembersJob{
		rankBase: newRankBase(NameRankMembers, "Sets memberRank = watches*5 + articles*3 + likes*2 + views on ACTIVE dealers", cfg, locker, log),
		members:  members,
		top:      top,
	}
}

func (j *RankMembersJob) Run(ctx context.Context) error {
	return j.guarded(ctx, func(ctx context.Context, stats *RankStats) error {
		list, err := j.members.ListUnrankedDealers(ctx)
		if err != nil {
			return fmt.Errorf("list unranked dealers: %w", err)
		}

		items := make([]rankItem, len(list))
		for i, m := range list {
			items[i] = rankItem{id: m.ID, rank: m.RankScore()}
		}

		err = j.writeAll(ctx, items, stats, j.members.SetRank)
		j.publishTop(ctx, j.top, redis.BoardDealers, items)

		j.logger.Info().Int("selected", stats.Selected).Int("updated", stats.Updated).Int("failed", stats.Failed).Msg("dealer ranks computed")
		return err
	})
}
