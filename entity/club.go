package entity

import (
	"net/http"
	"time"
	"clubq/lib/validate"

	"github.com/biter777/countries"
)

// Club is created by exactly one club_manager during onboarding.
// A manager owns at most one club; the orchestrator enforces that before
// the row is written.
type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ClubType    string    `json:"club_type"`
	Description string    `json:"description,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Country     string    `json:"country,omitempty"`
	City        string    `json:"city,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClubParams is the club section of a club_manager onboarding payload.
type ClubParams struct {
	Name        string `json:"name" validate:"required,min=2,max=128"`
	ClubType    string `json:"club_type" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"omitempty,max=2048"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Country     string `json:"country" validate:"omitempty,max=64"`
	City        string `json:"city" validate:"omitempty,max=64"`
}

func (c *ClubParams) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

// CountryCode normalizes the payload country to an ISO alpha-2 code.
// Accepts either a two-letter code or a country name; unknown values
// collapse to an empty string rather than failing onboarding.
func (c *ClubParams) CountryCode() string {
	if c.Country == "" {
		return ""
	}
	if len(c.Country) == 2 {
		return c.Country
	}
	country := countries.ByName(c.Country)
	code := country.Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}
