package watch

import (
	"fmt"
	"time"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// transitions lists the statuses reachable from each status. SOLD is final;
// a DELETE listing can only be purged by an admin.
var transitions = map[Status][]Status{
	StatusHold:   {StatusActive, StatusDelete},
	StatusActive: {StatusHold, StatusSold, StatusDelete},
	StatusSold:   {},
	StatusDelete: {},
}

// CanTransition reports whether from -> to is permitted.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionResult describes the side effects of a status change.
type TransitionResult struct {
	From Status
	To   Status
	// ReleasesOwnerSlot is true when the owner's memberWatches must drop by one.
	ReleasesOwnerSlot bool
}

// TransitionTo moves the watch to status to and stamps soldAt/deletedAt.
func (w *Watch) TransitionTo(to Status, now time.Time) (TransitionResult, error) {
	res := TransitionResult{From: w.Status, To: to}
	if w.Status == to {
		return res, nil
	}
	if !to.IsValid() || !CanTransition(w.Status, to) {
		return res, shared.NewDomainError("watch", "Transition", shared.ErrStateTransition,
			fmt.Sprintf("cannot change watch status from %s to %s", w.Status, to))
	}

	switch to {
	case StatusSold:
		w.SoldAt = &now
		res.ReleasesOwnerSlot = true
	case StatusDelete:
		w.DeletedAt = &now
		res.ReleasesOwnerSlot = true
	}
	w.Status = to
	w.UpdatedAt = now
	return res, nil
}

// IsPurgeable reports whether an admin may hard-delete the listing.
func (w *Watch) IsPurgeable() bool {
	return w.Status == StatusDelete
}
