package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"clubq/entity"
	"clubq/internal/accounts"
	"clubq/internal/invites"
	"clubq/internal/onboarding"
	"clubq/internal/progress"
	"clubq/lib/sl"
)

type AuthService interface {
	UserByToken(ctx context.Context, token string) (*entity.User, error)
}

// Core is the single implementation behind every handler interface. It owns
// no business rules of its own; it just wires the services together.
type Core struct {
	accounts   *accounts.Service
	invites    *invites.Registry
	onboarding *onboarding.Orchestrator
	tracker    *progress.Tracker
	auth       AuthService
	log        *slog.Logger
}

func New(accounts *accounts.Service, invites *invites.Registry, orchestrator *onboarding.Orchestrator, log *slog.Logger) *Core {
	if accounts == nil || invites == nil || orchestrator == nil {
		panic("core services are nil")
	}
	return &Core{
		accounts:   accounts,
		invites:    invites,
		onboarding: orchestrator,
		log:        log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetTracker(tracker *progress.Tracker) {
	c.tracker = tracker
	c.onboarding.SetTracker(tracker)
}

func (c *Core) AuthenticateByToken(ctx context.Context, token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(ctx, token)
}

func (c *Core) CompleteOnboarding(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error) {
	return c.onboarding.CompleteOnboarding(ctx, userID, params)
}

func (c *Core) AddRole(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error) {
	return c.onboarding.AddRole(ctx, userID, params)
}

func (c *Core) UserStatus(ctx context.Context, userID int64) (*entity.UserStatus, error) {
	return c.onboarding.Status(ctx, userID)
}

func (c *Core) SetPrimaryRole(ctx context.Context, userID int64, kind entity.RoleKind) error {
	return c.accounts.SetPrimaryRole(ctx, userID, kind)
}

func (c *Core) DeactivateRole(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) error {
	return c.accounts.DeactivateRole(ctx, userID, kind, clubID)
}

func (c *Core) RegenerateAccountNumber(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) (string, error) {
	return c.accounts.RegenerateNumber(ctx, userID, kind, clubID)
}

func (c *Core) AccountByNumber(ctx context.Context, number string) (*entity.AccountSummary, error) {
	return c.accounts.AccountByNumber(ctx, number)
}

func (c *Core) SearchAccounts(ctx context.Context, query, roleFilter string) ([]entity.AccountSummary, error) {
	return c.accounts.Search(ctx, query, roleFilter)
}

func (c *Core) CreateInvite(ctx context.Context, requesterID int64, clubID string, role entity.RoleKind, expiresAt *time.Time, usageLimit *int) (*entity.InviteCode, error) {
	return c.invites.Create(ctx, clubID, requesterID, role, expiresAt, usageLimit)
}

func (c *Core) ValidateInvite(ctx context.Context, code string) (*entity.InviteValidation, error) {
	return c.invites.Validate(ctx, code)
}

func (c *Core) PreviewInvite(ctx context.Context, code string, userID int64) (*entity.InvitePreview, error) {
	return c.invites.Preview(ctx, code, userID)
}

func (c *Core) DeactivateInvite(ctx context.Context, inviteID string, requesterID int64) error {
	return c.invites.Deactivate(ctx, inviteID, requesterID)
}

func (c *Core) RecordProgressStep(ctx context.Context, userID int64, role entity.RoleKind, step string) (int, error) {
	if c.tracker == nil {
		return 0, fmt.Errorf("completion tracker not connected")
	}
	return c.tracker.RecordStep(ctx, userID, role, step)
}
