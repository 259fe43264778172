package entity

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the onboarding core. Services wrap these with
// context via fmt.Errorf("...: %w", err); callers match with errors.Is
// and must never rely on the wrapping text.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("invite code expired")
	ErrExhausted    = errors.New("invite code exhausted")
	ErrDeactivated  = errors.New("invite code deactivated")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransient    = errors.New("transient failure")

	// ErrInviteNotFound is a not-found raised while resolving an invite
	// code; kept distinct so the client can tell a bad code from a bad id.
	ErrInviteNotFound = fmt.Errorf("invite code: %w", ErrNotFound)

	// ErrAccountNumberExhausted means the bounded retry loop could not
	// reserve a unique account number. The whole onboarding call is safe
	// to retry.
	ErrAccountNumberExhausted = errors.New("account number space exhausted")
)

// UserMessage translates an error kind into the message shown to the client.
// Invite failures stay distinct so the UI can explain why a code was refused.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "Invite code has expired"
	case errors.Is(err, ErrExhausted):
		return "Invite code has no remaining uses"
	case errors.Is(err, ErrDeactivated):
		return "Invite code has been deactivated"
	case errors.Is(err, ErrInviteNotFound):
		return "Invite code not found"
	case errors.Is(err, ErrNotFound):
		return "Requested resource not found"
	case errors.Is(err, ErrConflict):
		return "Already exists"
	case errors.Is(err, ErrUnauthorized):
		return "Not allowed"
	case errors.Is(err, ErrAccountNumberExhausted):
		return "Could not allocate an account number, please retry"
	case errors.Is(err, ErrTransient):
		return "Temporary failure, please retry"
	case errors.Is(err, ErrValidation):
		return "Invalid request: " + err.Error()
	default:
		return "Internal error"
	}
}
