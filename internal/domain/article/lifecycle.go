package article

import (
	"fmt"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// transitions: PUBLISHING and DELETE move between each other, both may be
// purged with REMOVE.
var transitions = map[Status][]Status{
	StatusPublishing: {StatusDelete, StatusRemove},
	StatusDelete:     {StatusPublishing, StatusRemove},
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

// EditableStatuses are the stored statuses an owner or admin may edit.
var EditableStatuses = []Status{StatusPublishing, StatusDelete}

// Transition validates a status change and reports whether it purges the row.
func Transition(from, to Status) (purge bool, err error) {
	if from == to {
		return false, nil
	}
	if !to.IsValid() || !CanTransition(from, to) {
		return false, shared.NewDomainError("article", "Transition", shared.ErrStateTransition,
			fmt.Sprintf("cannot change article status from %s to %s", from, to))
	}
	return to == StatusRemove, nil
}
