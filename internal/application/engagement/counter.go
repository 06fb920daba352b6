package engagement

import (
	"context"
	"fmt"

	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// Kind selects which counter of a target AdjustTarget changes.
type Kind int

const (
	KindViews Kind = iota + 1
	KindLikes
	KindComments
)

func (k Kind) String() string {
	switch k {
	case KindViews:
		return "views"
	case KindLikes:
		return "likes"
	case KindComments:
		return "comments"
	}
	return "unknown"
}

var (
	memberCounters = map[Kind]member.Counter{
		KindViews:    member.CounterViews,
		KindLikes:    member.CounterLikes,
		KindComments: member.CounterComments,
	}
	watchCounters = map[Kind]watch.Counter{
		KindViews:    watch.CounterViews,
		KindLikes:    watch.CounterLikes,
		KindComments: watch.CounterComments,
	}
	articleCounters = map[Kind]article.Counter{
		KindViews:    article.CounterViews,
		KindLikes:    article.CounterLikes,
		KindComments: article.CounterComments,
	}
)

// CounterEditor applies atomic increments to one counter column at a time.
type CounterEditor struct {
	members  member.Repository
	watches  watch.Repository
	articles article.Repository
	metrics  Metrics
}

// NewCounterEditor creates an editor over the repositories of s.
func NewCounterEditor(s Store, m Metrics) *CounterEditor {
	if m == nil {
		m = NopMetrics{}
	}
	return &CounterEditor{members: s.Members(), watches: s.Watches(), articles: s.Articles(), metrics: m}
}

// AdjustMember adds delta to counter on member id.
func (e *CounterEditor) AdjustMember(ctx context.Context, id string, counter member.Counter, delta int) (*member.Member, error) {
	if counter.IsZero() {
		return nil, shared.Validation("member", "AdjustCounter", "counter is required")
	}
	m, err := e.members.AdjustCounter(ctx, id, counter, delta)
	e.metrics.CounterAdjusted("member", err)
	return m, err
}

// AdjustWatch adds delta to counter on watch id.
func (e *CounterEditor) AdjustWatch(ctx context.Context, id string, counter watch.Counter, delta int) (*watch.Watch, error) {
	if counter.IsZero() {
		return nil, shared.Validation("watch", "AdjustCounter", "counter is required")
	}
	w, err := e.watches.AdjustCounter(ctx, id, counter, delta)
	e.metrics.CounterAdjusted("watch", err)
	return w, err
}

// AdjustArticle adds delta to counter on article id.
func (e *CounterEditor) AdjustArticle(ctx context.Context, id string, counter article.Counter, delta int) (*article.Article, error) {
	if counter.IsZero() {
		return nil, shared.Validation("article", "AdjustCounter", "counter is required")
	}
	a, err := e.articles.AdjustCounter(ctx, id, counter, delta)
	e.metrics.CounterAdjusted("article", err)
	return a, err
}

// AdjustTarget adds delta to the kind counter of the entity refID in group.
func (e *CounterEditor) AdjustTarget(ctx context.Context, group engagement.Group, refID string, kind Kind, delta int) error {
	var err error
	switch group {
	case engagement.GroupMember:
		_, err = e.AdjustMember(ctx, refID, memberCounters[kind], delta)
	case engagement.GroupWatch:
		_, err = e.AdjustWatch(ctx, refID, watchCounters[kind], delta)
	case engagement.GroupArticle:
		_, err = e.AdjustArticle(ctx, refID, articleCounters[kind], delta)
	default:
		return shared.Validation("counter", "Adjust", fmt.Sprintf("unknown group %q", group))
	}
	return err
}
