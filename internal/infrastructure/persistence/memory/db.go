// Package memory is an in-process implementation of every repository and of
// the engagement unit of work. It is a test double: application, HTTP and job
// tests run on it without PostgreSQL. Binaries always use the postgres store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

type likeKey struct {
	member string
	ref    string
	group  engagement.Group
}

type tables struct {
	members       map[string]member.Member
	watches       map[string]watch.Watch
	articles      map[string]article.Article
	comments      map[string]comment.Comment
	likes         map[likeKey]engagement.Like
	views         []engagement.View
	notifications []notification.Notification
}

func (t *tables) clone() tables {
	c := tables{
		members:       make(map[string]member.Member, len(t.members)),
		watches:       make(map[string]watch.Watch, len(t.watches)),
		articles:      make(map[string]article.Article, len(t.articles)),
		comments:      make(map[string]comment.Comment, len(t.comments)),
		likes:         make(map[likeKey]engagement.Like, len(t.likes)),
		views:         append([]engagement.View(nil), t.views...),
		notifications: append([]notification.Notification(nil), t.notifications...),
	}
	for k, v := range t.members {
		c.members[k] = v
	}
	for k, v := range t.watches {
		c.watches[k] = v
	}
	for k, v := range t.articles {
		c.articles[k] = v
	}
	for k, v := range t.comments {
		c.comments[k] = v
	}
	for k, v := range t.likes {
		c.likes[k] = v
	}
	return c
}

// DB holds all tables behind one mutex.
type DB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables

	failures map[string]error
	now      func() time.Time
}

// New creates an empty database.
func New() *DB {
	db := &DB{failures: make(map[string]error), now: time.Now}
	db.t = (&tables{}).clone()
	return db
}

// FailOn makes the next call of op return err. Ops are named
// "<repo>.<Method>", e.g. "watch.AdjustCounter", plus "commit".
func (db *DB) FailOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = err
}

// fail must be called with db.mu held.
func (db *DB) fail(op string) error {
	if err, ok := db.failures[op]; ok {
		delete(db.failures, op)
		return err
	}
	return nil
}

func (db *DB) Members() member.Repository             { return &MemberRepository{db: db} }
func (db *DB) Watches() watch.Repository              { return &WatchRepository{db: db} }
func (db *DB) Articles() article.Repository           { return &ArticleRepository{db: db} }
func (db *DB) Comments() comment.Repository           { return &CommentRepository{db: db} }
func (db *DB) Likes() engagement.LikeRepository       { return &LikeRepository{db: db} }
func (db *DB) Views() engagement.ViewRepository       { return &ViewRepository{db: db} }
func (db *DB) Notifications() notification.Repository { return &NotificationRepository{db: db} }

// MemberRanks exposes the rank batch view of members.
func (db *DB) MemberRanks() member.RankRepository { return &MemberRepository{db: db} }

// WatchRanks exposes the rank batch view of watches.
func (db *DB) WatchRanks() watch.RankRepository { return &WatchRepository{db: db} }

// UnitOfWork returns a unit of work that restores a snapshot when fn fails.
func (db *DB) UnitOfWork() *UnitOfWork { return &UnitOfWork{db: db} }

// UnitOfWork serializes units and rolls back by snapshot.
type UnitOfWork struct {
	db *DB
}

var _ appengagement.UnitOfWork = (*UnitOfWork)(nil)

// Do runs fn; any error restores the tables to their state before fn.
func (u *UnitOfWork) Do(ctx context.Context, op string, fn func(ctx context.Context, s appengagement.Store) error) error {
	u.db.txMu.Lock()
	defer u.db.txMu.Unlock()

	u.db.mu.Lock()
	snap := u.db.t.clone()
	u.db.mu.Unlock()

	if err := fn(ctx, u.db); err != nil {
		u.db.mu.Lock()
		u.db.t = snap
		u.db.mu.Unlock()
		return err
	}

	u.db.mu.Lock()
	err := u.db.fail("commit")
	u.db.mu.Unlock()
	if err != nil {
		return shared.WrapError("uow", op, shared.ErrPartialFailure, "commit outcome unknown", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

type sortable struct {
	id  string
	key float64
}

// paginate orders items by key (ties by id) and cuts the requested window.
func paginate[T any](items []T, p shared.Paging, meta func(T) sortable) shared.Page[T] {
	desc := p.Direction != shared.Asc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := meta(items[i]), meta(items[j])
		if a.key != b.key {
			if desc {
				return a.key > b.key
			}
			return a.key < b.key
		}
		return a.id < b.id
	})

	total := len(items)
	start := p.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := total
	if p.Limit >= 0 && p.Limit < total-start {
		end = start + p.Limit
	}
	list := make([]T, 0, end-start)
	list = append(list, items[start:end]...)
	return shared.Page[T]{List: list, Total: total}
}

func timeKey(t time.Time) float64 { return float64(t.UnixNano()) }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func in[T comparable](v T, set []T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func counterResult(domain string, v int) error {
	if v < 0 {
		return shared.Validation(domain, "AdjustCounter", "counter cannot be negative")
	}
	return nil
}

// meLiked must be called with db.mu held.
func (db *DB) meLiked(viewerID, refID string) []shared.MeLiked {
	if viewerID == "" {
		return nil
	}
	for k, l := range db.t.likes {
		if k.member == viewerID && k.ref == refID {
			return []shared.MeLiked{engagement.MeLikedFrom(&l)}
		}
	}
	return []shared.MeLiked{}
}

// profile must be called with db.mu held.
func (db *DB) profile(memberID string) *member.Profile {
	m, ok := db.t.members[memberID]
	if !ok {
		return nil
	}
	return &member.Profile{ID: m.ID, Type: m.Type, Nick: m.Nick, FullName: m.FullName, Image: m.Image, Rank: m.Rank}
}
