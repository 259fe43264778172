package entity

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for dates of birth.
const dateLayout = "2006-01-02"

// ParseDate parses a payload date of birth, rejecting malformed values
// with a validation error.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD: %w", s, ErrValidation)
	}
	return t, nil
}

// UserProfile holds the personal fields collected during onboarding.
// One row per user, shared across roles, upserted on every onboarding call.
type UserProfile struct {
	UserID      int64      `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Country     string     `json:"country,omitempty"`
	MedicalInfo string     `json:"medical_info,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProfileParams is the profile section of an onboarding payload.
type ProfileParams struct {
	FirstName   string `json:"first_name" validate:"required,min=1,max=64"`
	LastName    string `json:"last_name" validate:"required,min=1,max=64"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Country     string `json:"country" validate:"omitempty,max=64"`
	MedicalInfo string `json:"medical_info" validate:"omitempty,max=2048"`
}

// UserChild belongs to a parent user; created in batches during parent
// onboarding or individually afterward.
type UserChild struct {
	ID           string     `json:"id"`
	ParentUserID int64      `json:"parent_user_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	MedicalInfo  string     `json:"medical_info,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ChildParams is one child entry of a parent onboarding payload. The date
// of birth stays a string here; the orchestrator parses it inside the
// transaction so a malformed entry aborts the whole unit of work.
type ChildParams struct {
	FirstName   string `json:"first_name" validate:"required,min=1,max=64"`
	LastName    string `json:"last_name" validate:"required,min=1,max=64"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty"`
	MedicalInfo string `json:"medical_info" validate:"omitempty,max=2048"`
}
