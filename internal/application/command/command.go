// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// Notifier delivers notifications on a best-effort basis.
type Notifier interface {
	Notify(ctx context.Context, items ...*notification.Notification)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, ...*notification.Notification) {}

// Deps are the collaborators shared by all command handlers.
type Deps struct {
	Members    member.Repository
	Watches    watch.Repository
	Articles   article.Repository
	Engagement *appengagement.Service
	Notifier   Notifier
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) now() time.Time { return d.Now().UTC() }

// ══════════════════════════════════════════════════════════════════════════════
// TARGET RESOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// target is the entity a like, view or comment points at.
type target struct {
	OwnerID string
	Title   string
	Member  *member.Member
	Watch   *watch.Watch
	Article *article.Article
}

// resolveTarget loads a visible target. blocked also admits BLOCK members,
// which can still be viewed but not liked or commented on.
func (d Deps) resolveTarget(ctx context.Context, group engagement.Group, id string, blocked bool) (*target, error) {
	switch group {
	case engagement.GroupMember:
		statuses := []member.Status{member.StatusActive}
		if blocked {
			statuses = append(statuses, member.StatusBlock)
		}
		m, err := d.Members.GetByID(ctx, id, statuses...)
		if err != nil {
			return nil, err
		}
		return &target{OwnerID: m.ID, Title: m.Nick, Member: m}, nil
	case engagement.GroupWatch:
		w, err := d.Watches.GetByID(ctx, id, watch.StatusActive)
		if err != nil {
			return nil, err
		}
		return &target{OwnerID: w.MemberID, Title: w.ModelName, Watch: w}, nil
	case engagement.GroupArticle:
		a, err := d.Articles.GetByID(ctx, id, article.StatusPublishing)
		if err != nil {
			return nil, err
		}
		return &target{OwnerID: a.MemberID, Title: a.Title, Article: a}, nil
	}
	return nil, shared.Validation("target", "Resolve", fmt.Sprintf("unknown group %q", group))
}

func validateGroup(domain string, g engagement.Group) error {
	if !g.IsValid() {
		return shared.Validation(domain, "Validate",
			fmt.Sprintf("group must be one of [%s %s %s]", engagement.GroupMember, engagement.GroupArticle, engagement.GroupWatch))
	}
	return nil
}
