package entity

import (
	"fmt"
	"net/http"
	"strings"
	"clubq/lib/validate"
)

// OnboardingParams is the payload of a complete-onboarding or add-role
// request. Which sections are required depends on the role:
// club_manager needs Club, member and parent need ClubInviteCode, parent
// may also carry Children.
type OnboardingParams struct {
	Role           string         `json:"role" validate:"required"`
	Club           *ClubParams    `json:"club,omitempty"`
	ClubInviteCode string         `json:"club_invite_code,omitempty"`
	Profile        *ProfileParams `json:"profile,omitempty"`
	Children       []ChildParams  `json:"children,omitempty"`
}

func (p *OnboardingParams) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

// CheckRole validates the payload shape against the requested role kind.
// Exhaustive over role kinds so a new role cannot be added without
// deciding its payload here.
func (p *OnboardingParams) CheckRole() (RoleKind, error) {
	kind, err := ParseRoleKind(p.Role)
	if err != nil {
		return "", err
	}
	switch kind {
	case RoleClubManager:
		if p.Club == nil {
			return "", fmt.Errorf("club details are required for club_manager: %w", ErrValidation)
		}
		if err := validate.Struct(p.Club); err != nil {
			return "", fmt.Errorf("club: %v: %w", err, ErrValidation)
		}
	case RoleMember, RoleParent:
		if strings.TrimSpace(p.ClubInviteCode) == "" {
			return "", fmt.Errorf("club_invite_code is required for %s: %w", kind, ErrValidation)
		}
	case RoleClubCoach:
		if strings.TrimSpace(p.ClubInviteCode) == "" {
			return "", fmt.Errorf("club_invite_code is required for club_coach: %w", ErrValidation)
		}
	}
	if p.Profile != nil {
		if err := validate.Struct(p.Profile); err != nil {
			return "", fmt.Errorf("profile: %v: %w", err, ErrValidation)
		}
	}
	for i := range p.Children {
		if err := validate.Struct(&p.Children[i]); err != nil {
			return "", fmt.Errorf("children[%d]: %v: %w", i, err, ErrValidation)
		}
	}
	return kind, nil
}

// NormalizedInviteCode upper-cases the payload code; lookups are
// case-insensitive by convention.
func (p *OnboardingParams) NormalizedInviteCode() string {
	return strings.ToUpper(strings.TrimSpace(p.ClubInviteCode))
}

// OnboardingResult is returned by a successful onboarding transaction.
type OnboardingResult struct {
	AccountNumber string      `json:"account_number"`
	Role          UserRole    `json:"role"`
	Account       UserAccount `json:"account"`
	ClubID        string      `json:"club_id,omitempty"`
	ChildIDs      []string    `json:"child_ids,omitempty"`
	Message       string      `json:"message"`
}

// RoleProgress is the completion state of one role's checklist.
type RoleProgress struct {
	Role           RoleKind `json:"role"`
	CompletedSteps []string `json:"completed_steps"`
	ExpectedSteps  []string `json:"expected_steps"`
	Percent        int      `json:"percent"`
}

// ProgressSummary is the advisory completion report for a user.
type ProgressSummary struct {
	OverallPercent int            `json:"overall_percent"`
	PerRole        []RoleProgress `json:"per_role"`
}

// UserStatus answers the status endpoints: the primary role, every active
// account, which additional roles are still available, and the advisory
// completion summary.
type UserStatus struct {
	User           User             `json:"user"`
	PrimaryRole    RoleKind         `json:"primary_role,omitempty"`
	Roles          []UserRole       `json:"roles"`
	Accounts       []UserAccount    `json:"accounts"`
	AvailableRoles []RoleKind       `json:"available_roles"`
	Completion     *ProgressSummary `json:"completion,omitempty"`
}

// ProgressParams is the update-completion-progress payload.
type ProgressParams struct {
	Role string `json:"role" validate:"required"`
	Step string `json:"step" validate:"required,min=1,max=64"`
}

func (p *ProgressParams) Bind(_ *http.Request) error {
	return validate.Struct(p)
}
