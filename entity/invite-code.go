package entity

import (
	"net/http"
	"time"
	"clubq/lib/validate"
)

// InviteStatus is the evaluated state of an invite code. Only the active
// flag is persisted; expired and exhausted are derived from expires_at and
// used_count on every read. All non-active states are terminal.
type InviteStatus string

const (
	InviteActive      InviteStatus = "active"
	InviteExpired     InviteStatus = "expired"
	InviteExhausted   InviteStatus = "exhausted"
	InviteDeactivated InviteStatus = "deactivated"
)

// InviteCode authorizes a member or parent onboarding into a club without
// administrative approval. Codes are opaque unique strings, compared
// case-insensitively (input is upper-cased before lookup). UsedCount is
// mutated only through atomic redemption under a row lock and never exceeds
// UsageLimit.
type InviteCode struct {
	ID         string     `json:"id"`
	ClubID     string     `json:"club_id"`
	Code       string     `json:"code"`
	Role       RoleKind   `json:"role"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	UsageLimit int        `json:"usage_limit"`
	UsedCount  int        `json:"used_count"`
	IsActive   bool       `json:"is_active"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Status evaluates the invite state at the given instant. Deactivation wins
// over expiry, expiry over exhaustion, so the reported reason matches what
// an admin actually did last.
func (c *InviteCode) Status(now time.Time) InviteStatus {
	if !c.IsActive {
		return InviteDeactivated
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return InviteExpired
	}
	if c.UsedCount >= c.UsageLimit {
		return InviteExhausted
	}
	return InviteActive
}

// RemainingUses never reports below zero.
func (c *InviteCode) RemainingUses() int {
	if c.UsedCount >= c.UsageLimit {
		return 0
	}
	return c.UsageLimit - c.UsedCount
}

// RedeemError maps a non-active status to its error kind, nil when the
// code can still be redeemed.
func (c *InviteCode) RedeemError(now time.Time) error {
	switch c.Status(now) {
	case InviteDeactivated:
		return ErrDeactivated
	case InviteExpired:
		return ErrExpired
	case InviteExhausted:
		return ErrExhausted
	default:
		return nil
	}
}

// InviteValidation is the read-only validity report. It can be stale by the
// time a write happens; redemption re-checks everything under the row lock.
type InviteValidation struct {
	Valid         bool         `json:"valid"`
	Status        InviteStatus `json:"status"`
	Club          *Club        `json:"club,omitempty"`
	Role          RoleKind     `json:"role,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	RemainingUses int          `json:"remaining_uses"`
}

// InviteParams is the create-invite payload. Role is restricted to kinds
// that join through invites; usage limit and expiry fall back to configured
// defaults when omitted.
type InviteParams struct {
	ClubID     string     `json:"club_id" validate:"required"`
	Role       string     `json:"role" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	UsageLimit *int       `json:"usage_limit,omitempty" validate:"omitempty,min=1,max=10000"`
}

func (p *InviteParams) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

// InvitePreview is the per-user view of an invite code.
type InvitePreview struct {
	Club          *Club  `json:"club,omitempty"`
	UserCanJoin   bool   `json:"user_can_join"`
	AlreadyMember bool   `json:"already_member"`
	Message       string `json:"message"`
}
