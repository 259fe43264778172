package entity

import (
	"regexp"
	"time"
)

// AccountNumberPattern is the externally visible account identifier format:
// the "CQ" prefix followed by nine digits.
var AccountNumberPattern = regexp.MustCompile(`^CQ\d{9}$`)

// ValidAccountNumber reports whether s is a well-formed account number.
func ValidAccountNumber(s string) bool {
	return AccountNumberPattern.MatchString(s)
}

// UserAccount is the displayable account behind one active UserRole.
// It is created together with its role inside the onboarding transaction
// and soft-deactivated with it; account numbers are never reused.
type UserAccount struct {
	ID            string     `json:"id"`
	RoleID        string     `json:"role_id"`
	UserID        int64      `json:"user_id"`
	Number        string     `json:"account_number"`
	Kind          RoleKind   `json:"role"`
	ClubID        string     `json:"club_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// AccountSummary joins an account with display fields for listings and
// search results.
type AccountSummary struct {
	Account  UserAccount `json:"account"`
	UserName string      `json:"user_name"`
	ClubName string      `json:"club_name,omitempty"`
}
