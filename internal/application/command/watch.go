package command

import (
	"context"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// ══════════════════════════════════════════════════════════════════════════════
// WATCH COMMANDS
// Создание объявления брендом или дилером, редактирование владельцем с
// переходами статуса и удаление админом.
// ══════════════════════════════════════════════════════════════════════════════

// CreateWatchCommand lists a new watch for MemberID.
type CreateWatchCommand struct {
	MemberID       string
	Type           watch.Type
	Location       watch.Location
	Address        string
	ModelName      string
	Brand          string
	Color          string
	LimitedEdition bool
	Price          float64
	Images         []string
	Desc           string
	// DealerIDs is honoured for BRAND members only.
	DealerIDs []string
}

// Validate validates the command.
func (c CreateWatchCommand) Validate() error {
	if err := shared.ValidateID("watch", "memberId", c.MemberID); err != nil {
		return err
	}
	if c.Address == "" {
		return shared.Validation("watch", "Create", "watchAddress is required")
	}
	return watch.Update{
		Type:      &c.Type,
		Location:  &c.Location,
		ModelName: &c.ModelName,
		Price:     &c.Price,
	}.Validate()
}

// UpdateWatchCommand edits a listing owned by MemberID. Status, when set,
// goes through the watch lifecycle.
type UpdateWatchCommand struct {
	MemberID string
	WatchID  string
	Update   watch.Update
	Status   *watch.Status
}

// Validate validates the command.
func (c UpdateWatchCommand) Validate() error {
	if err := shared.ValidateID("watch", "memberId", c.MemberID); err != nil {
		return err
	}
	if err := shared.ValidateID("watch", "_id", c.WatchID); err != nil {
		return err
	}
	if c.Update.IsEmpty() && c.Status == nil {
		return shared.Validation("watch", "Update", "nothing to update")
	}
	return c.Update.Validate()
}

// WatchHandler handles watch commands.
type WatchHandler struct {
	deps Deps
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(deps Deps) *WatchHandler {
	return &WatchHandler{deps: deps.withDefaults()}
}

// Create stores the watch and bumps the owner's memberWatches in one unit.
// Dealers assigned by a brand are notified afterwards.
func (h *WatchHandler) Create(ctx context.Context, cmd CreateWatchCommand) (*watch.Watch, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	owner, err := h.deps.Members.GetByID(ctx, cmd.MemberID, member.StatusActive)
	if err != nil {
		return nil, notAllowedIfMissing(err, "watch", "Create")
	}

	var dealerIDs []string
	switch owner.Type {
	case member.TypeBrand:
		if len(cmd.DealerIDs) > 0 {
			if dealerIDs, err = h.deps.Members.FilterDealers(ctx, cmd.DealerIDs); err != nil {
				return nil, err
			}
		}
	case member.TypeDealer:
		dealerIDs = []string{owner.ID}
	default:
		return nil, shared.NewDomainError("watch", "Create", shared.ErrForbidden, "Only BRAND or DEALER members can create watches")
	}

	now := h.deps.now()
	w := &watch.Watch{
		ID:             shared.NewID(),
		Type:           cmd.Type,
		Status:         watch.StatusActive,
		Location:       cmd.Location,
		Address:        cmd.Address,
		ModelName:      cmd.ModelName,
		Brand:          cmd.Brand,
		Color:          cmd.Color,
		LimitedEdition: cmd.LimitedEdition,
		Price:          cmd.Price,
		Images:         cmd.Images,
		Desc:           cmd.Desc,
		MemberID:       owner.ID,
		DealerIDs:      dealerIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = h.deps.Engagement.Do(ctx, "watch.create", func(ctx context.Context, st appengagement.Store) error {
		if err := st.Watches().Create(ctx, w); err != nil {
			return err
		}
		_, err := h.deps.Engagement.Editor(st).AdjustMember(ctx, owner.ID, member.CounterWatches, 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	if owner.Type == member.TypeBrand {
		items := notification.NewWatchForDealers(owner.ID, w.ID, "New Watch Uploaded", dealerIDs, now)
		for _, n := range items {
			n.Desc = owner.Nick + " has uploaded a new watch."
		}
		h.deps.Notifier.Notify(ctx, items...)
	}
	return w, nil
}

// Update applies the owner's edit. Entering SOLD or DELETE releases one
// memberWatches slot in the same unit.
func (h *WatchHandler) Update(ctx context.Context, cmd UpdateWatchCommand) (*watch.Watch, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var out *watch.Watch
	err := h.deps.Engagement.Do(ctx, "watch.update", func(ctx context.Context, st appengagement.Store) error {
		w, err := st.Watches().GetByID(ctx, cmd.WatchID)
		if err != nil {
			return err
		}
		if w.MemberID != cmd.MemberID {
			return shared.NewDomainError("watch", "Update", shared.ErrForbidden, shared.MsgNotAllowed)
		}
		if !cmd.Update.IsEmpty() {
			if !w.IsEditable() {
				return shared.Validation("watch", "Update", "watch can no longer be edited")
			}
			w.Apply(cmd.Update)
		}

		now := h.deps.now()
		w.UpdatedAt = now
		var res watch.TransitionResult
		if cmd.Status != nil {
			if res, err = w.TransitionTo(*cmd.Status, now); err != nil {
				return err
			}
		}
		if err := st.Watches().Save(ctx, w); err != nil {
			return err
		}
		if res.ReleasesOwnerSlot {
			if _, err := h.deps.Engagement.Editor(st).AdjustMember(ctx, w.MemberID, member.CounterWatches, -1); err != nil {
				return err
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Purge hard-deletes a DELETE-status watch. The owner's slot was already
// released when the watch entered DELETE.
func (h *WatchHandler) Purge(ctx context.Context, watchID string) (*watch.Watch, error) {
	if err := shared.ValidateID("watch", "_id", watchID); err != nil {
		return nil, err
	}

	var out *watch.Watch
	err := h.deps.Engagement.Do(ctx, "watch.purge", func(ctx context.Context, st appengagement.Store) error {
		w, err := st.Watches().GetByID(ctx, watchID)
		if err != nil {
			return err
		}
		if !w.IsPurgeable() {
			return shared.Validation("watch", "Purge", "only watches in DELETE status can be removed")
		}
		if err := st.Watches().Purge(ctx, watchID); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// notAllowedIfMissing turns a missing or inactive actor into a 403.
func notAllowedIfMissing(err error, domain, op string) error {
	if shared.IsNotFound(err) {
		return shared.NewDomainError(domain, op, shared.ErrForbidden, shared.MsgNotAllowed)
	}
	return err
}
