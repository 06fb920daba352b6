package watch

import (
	"github.com/timory/timory-hub/internal/domain/shared"
)

// IsEmpty reports an update without fields.
func (u Update) IsEmpty() bool {
	return u.Type == nil && u.Location == nil && u.Address == nil && u.ModelName == nil &&
		u.Brand == nil && u.Color == nil && u.LimitedEdition == nil && u.Price == nil &&
		u.Images == nil && u.Desc == nil
}

// Validate checks the fields present in u.
func (u Update) Validate() error {
	if u.Type != nil && !u.Type.IsValid() {
		return shared.Validation("watch", "Validate", "watchType must be one of [MECHANICAL AUTOMATIC QUARTZ SMART]")
	}
	if u.Location != nil && !u.Location.IsValid() {
		return shared.Validation("watch", "Validate", "watchLocation is not supported")
	}
	if u.ModelName != nil && *u.ModelName == "" {
		return shared.Validation("watch", "Validate", "watchModelName is required")
	}
	if u.Price != nil && *u.Price < 0 {
		return shared.Validation("watch", "Validate", "watchPrice cannot be negative")
	}
	return nil
}

// IsEditable reports whether listing fields may still change.
func (w *Watch) IsEditable() bool {
	return w.Status == StatusHold || w.Status == StatusActive
}

// Apply copies the fields present in u onto w.
func (w *Watch) Apply(u Update) {
	if u.Type != nil {
		w.Type = *u.Type
	}
	if u.Location != nil {
		w.Location = *u.Location
	}
	if u.Address != nil {
		w.Address = *u.Address
	}
	if u.ModelName != nil {
		w.ModelName = *u.ModelName
	}
	if u.Brand != nil {
		w.Brand = *u.Brand
	}
	if u.Color != nil {
		w.Color = *u.Color
	}
	if u.LimitedEdition != nil {
		w.LimitedEdition = *u.LimitedEdition
	}
	if u.Price != nil {
		w.Price = *u.Price
	}
	if u.Images != nil {
		w.Images = u.Images
	}
	if u.Desc != nil {
		w.Desc = *u.Desc
	}
}
