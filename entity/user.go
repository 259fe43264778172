package entity

import (
	"fmt"
	"net/http"
	"time"
	"clubq/lib/validate"
)

// RoleKind determines which onboarding path and payload shape apply.
type RoleKind string

const (
	RoleClubManager RoleKind = "club_manager"
	RoleMember      RoleKind = "member"
	RoleParent      RoleKind = "parent"
	RoleClubCoach   RoleKind = "club_coach"
)

// AllRoleKinds lists every role a user may onboard into, in display order.
var AllRoleKinds = []RoleKind{RoleClubManager, RoleMember, RoleParent, RoleClubCoach}

// ParseRoleKind validates a role string coming from a request payload.
func ParseRoleKind(s string) (RoleKind, error) {
	switch RoleKind(s) {
	case RoleClubManager, RoleMember, RoleParent, RoleClubCoach:
		return RoleKind(s), nil
	case "":
		return "", fmt.Errorf("role is required: %w", ErrValidation)
	default:
		return "", fmt.Errorf("unknown role %q: %w", s, ErrValidation)
	}
}

// NeedsInvite reports whether onboarding into the role consumes a club
// invite code instead of creating a club.
func (k RoleKind) NeedsInvite() bool {
	return k == RoleMember || k == RoleParent
}

// User is an identity record. Identity creation and password handling live
// in the identity system; this service only reads users and attaches roles,
// accounts and profiles to them.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Token        string    `json:"-"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserRole is one (user, role-kind, club) assignment. At most one active
// row may exist per combination; deactivated rows are kept for audit.
type UserRole struct {
	ID            string     `json:"id"`
	UserID        int64      `json:"user_id"`
	Kind          RoleKind   `json:"role"`
	ClubID        string     `json:"club_id,omitempty"`
	IsPrimary     bool       `json:"is_primary"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// Matches reports whether the role targets the given (kind, club) pair.
func (r *UserRole) Matches(kind RoleKind, clubID string) bool {
	return r.Kind == kind && r.ClubID == clubID
}

// RoleParams selects one of the caller's roles, optionally narrowed to a
// club when the same kind is held at several clubs.
type RoleParams struct {
	Role   string `json:"role" validate:"required"`
	ClubID string `json:"club_id,omitempty"`
}

func (p *RoleParams) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

// Kind returns the validated role kind.
func (p *RoleParams) Kind() (RoleKind, error) {
	return ParseRoleKind(p.Role)
}
