package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/watch"
	"github.com/timory/timory-hub/pkg/circuitbreaker"
)

// Boards kept by the rank batch.
const (
	BoardDealers = member.RankBoard
	BoardWatches = watch.RankBoard
)

// RankEntry is one ranked id with its score.
type RankEntry struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
}

// RankMeta describes the last rebuild of a board.
type RankMeta struct {
	Board     string    `json:"board"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RankCache keeps top-N lists in sorted sets:
//   - "rank:{board}" maps id -> rank score
//   - "rank:{board}:meta" holds RankMeta JSON
type RankCache struct {
	cache *Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewRankCache creates a rank cache over cache.
func NewRankCache(cache *Cache) *RankCache {
	return &RankCache{cache: cache, ttl: TTLRankList, now: time.Now}
}

// Replace swaps the board contents for entries in one MULTI/EXEC.
func (r *RankCache) Replace(ctx context.Context, board string, entries []RankEntry) error {
	key := RankKey(board)
	pipe := r.cache.Client().TxPipeline()
	pipe.Del(ctx, key)

	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.Rank), Member: e.ID})
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, r.ttl)
	}

	meta, err := json.Marshal(RankMeta{Board: board, Size: len(entries), UpdatedAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("redis: encode rank meta: %w", err)
	}
	pipe.Set(ctx, RankMetaKey(board), meta, r.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

// Top returns up to n entries with the highest rank; equal ranks come in
// reverse id order.
// A board that was never written returns ErrCacheMiss.
func (r *RankCache) Top(ctx context.Context, board string, n int) ([]RankEntry, error) {
	if n <= 0 {
		return []RankEntry{}, nil
	}

	key := RankKey(board)
	exists, err := r.cache.Client().Exists(ctx, key, RankMetaKey(board)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrCacheMiss
	}

	zs, err := r.cache.Client().ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]RankEntry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, RankEntry{ID: id, Rank: int(z.Score)})
	}
	return out, nil
}

// TopIDs is Top without scores.
func (r *RankCache) TopIDs(ctx context.Context, board string, n int) ([]string, error) {
	entries, err := r.Top(ctx, board, n)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, nil
}

// Meta returns the metadata of the last Replace.
func (r *RankCache) Meta(ctx context.Context, board string) (*RankMeta, error) {
	var meta RankMeta
	if err := r.cache.Get(ctx, RankMetaKey(board), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GUARDED READS
// ══════════════════════════════════════════════════════════════════════════════

// GuardedRankCache reads top lists through a circuit breaker so a failing
// Redis stops costing a round trip per request. Misses do not trip it.
type GuardedRankCache struct {
	ranks   *RankCache
	breaker *circuitbreaker.Breaker
}

// NewGuardedRankCache wraps ranks with breaker.
func NewGuardedRankCache(ranks *RankCache, breaker *circuitbreaker.Breaker) *GuardedRankCache {
	return &GuardedRankCache{ranks: ranks, breaker: breaker}
}

// TopBreakerOptions are the breaker settings for top list reads.
func TopBreakerOptions(onChange func(name string, from, to circuitbreaker.State)) []circuitbreaker.Option {
	return []circuitbreaker.Option{
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithOpenTimeout(30 * time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool { return !errors.Is(err, ErrCacheMiss) }),
		circuitbreaker.WithOnStateChange(onChange),
	}
}

// TopIDs is RankCache.TopIDs behind the breaker. An open breaker returns
// circuitbreaker.ErrOpen.
func (g *GuardedRankCache) TopIDs(ctx context.Context, board string, n int) ([]string, error) {
	var ids []string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		ids, err = g.ranks.TopIDs(ctx, board, n)
		return err
	})
	return ids, err
}
