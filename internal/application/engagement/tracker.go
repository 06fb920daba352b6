package engagement

import (
	"context"
	"time"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ViewTracker records first-time views. It never touches counters.
type ViewTracker struct {
	views engagement.ViewRepository
	scope engagement.ViewScope
	now   func() time.Time
}

// NewViewTracker creates a tracker looking up existing views under scope.
func NewViewTracker(views engagement.ViewRepository, scope engagement.ViewScope) *ViewTracker {
	return &ViewTracker{views: views, scope: scope, now: time.Now}
}

// RecordView stores a view of targetID by actorID. It returns the new fact,
// or nil when the actor has already viewed the target.
func (t *ViewTracker) RecordView(ctx context.Context, actorID, targetID string, group engagement.Group) (*engagement.View, error) {
	if err := validateFact("view", actorID, targetID, group); err != nil {
		return nil, err
	}

	now := t.now().UTC()
	v := &engagement.View{
		ID:        shared.NewID(),
		MemberID:  actorID,
		RefID:     targetID,
		Group:     group,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := t.views.InsertIfAbsent(ctx, v, t.scope)
	if err != nil {
		return nil, shared.Storage("view", "Record", err)
	}
	if !created {
		return nil, nil
	}
	return v, nil
}

func validateFact(domain, actorID, targetID string, group engagement.Group) error {
	if err := shared.ValidateID(domain, "memberId", actorID); err != nil {
		return err
	}
	if err := shared.ValidateID(domain, "refId", targetID); err != nil {
		return err
	}
	if !group.IsValid() {
		return shared.Validation(domain, "Validate", "group must be one of [MEMBER ARTICLE WATCH]")
	}
	return nil
}
