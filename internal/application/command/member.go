package command

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand changes the caller's own profile.
type UpdateProfileCommand struct {
	MemberID string
	Update   member.ProfileUpdate
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if err := shared.ValidateID("member", "memberId", c.MemberID); err != nil {
		return err
	}
	return validateProfile(c.Update)
}

// UpdateMemberByAdminCommand changes any member, including type and status.
// Counters are never touched.
type UpdateMemberByAdminCommand struct {
	MemberID string
	Update   member.AdminUpdate
}

// Validate validates the command.
func (c UpdateMemberByAdminCommand) Validate() error {
	if err := shared.ValidateID("member", "_id", c.MemberID); err != nil {
		return err
	}
	u := c.Update
	if u.Type != nil && !u.Type.IsValid() {
		return shared.Validation("member", "Update", "memberType must be one of [USER DEALER BRAND ADMIN]")
	}
	if u.Status != nil && !u.Status.IsValid() {
		return shared.Validation("member", "Update", "memberStatus must be one of [ACTIVE BLOCK DELETE]")
	}
	if u.Type == nil && u.Status == nil && u.IsEmpty() {
		return shared.Validation("member", "Update", "nothing to update")
	}
	return validateNick(u.Nick)
}

func validateProfile(u member.ProfileUpdate) error {
	if u.IsEmpty() {
		return shared.Validation("member", "Update", "nothing to update")
	}
	return validateNick(u.Nick)
}

func validateNick(nick *string) error {
	if nick != nil && *nick == "" {
		return shared.Validation("member", "Update", "memberNick cannot be empty")
	}
	return nil
}

// MemberHandler handles member commands.
type MemberHandler struct {
	deps Deps
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(deps Deps) *MemberHandler {
	return &MemberHandler{deps: deps.withDefaults()}
}

// UpdateProfile applies cmd to an ACTIVE member.
func (h *MemberHandler) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (*member.Member, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.deps.Members.UpdateProfile(ctx, cmd.MemberID, cmd.Update)
}

// UpdateByAdmin applies cmd to a member in any status.
func (h *MemberHandler) UpdateByAdmin(ctx context.Context, cmd UpdateMemberByAdminCommand) (*member.Member, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.deps.Members.UpdateByAdmin(ctx, cmd.MemberID, cmd.Update)
}
