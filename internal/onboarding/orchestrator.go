package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"clubq/entity"
	"clubq/internal/accounts"
	"clubq/internal/database"
	"clubq/internal/invites"
	"clubq/internal/progress"
	"clubq/lib/sl"

	"github.com/google/uuid"
)

// Orchestrator drives a whole onboarding as one transaction: club creation
// or invite redemption, role and account creation, profile upsert and child
// rows all commit together or not at all. Completion tracking happens after
// commit and is advisory.
type Orchestrator struct {
	store    database.Store
	accounts *accounts.Service
	invites  *invites.Registry
	tracker  *progress.Tracker
	log      *slog.Logger
}

func New(store database.Store, accounts *accounts.Service, invites *invites.Registry, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		accounts: accounts,
		invites:  invites,
		log:      log.With(sl.Module("onboarding")),
	}
}

// SetTracker connects the optional completion tracker.
func (o *Orchestrator) SetTracker(tracker *progress.Tracker) {
	o.tracker = tracker
}

// CompleteOnboarding handles the user's first role. Whether the new role
// becomes primary is decided inside the transaction from the actual role
// count, so a racing second call cannot produce two primaries.
func (o *Orchestrator) CompleteOnboarding(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error) {
	result, err := o.onboard(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	result.Message = fmt.Sprintf("Welcome! Your account number is %s", result.AccountNumber)
	return result, nil
}

// AddRole attaches an additional role to an onboarded user. The existing
// primary designation is left untouched.
func (o *Orchestrator) AddRole(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error) {
	result, err := o.onboard(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	result.Message = fmt.Sprintf("Role %s added, account number %s", result.Role.Kind, result.AccountNumber)
	return result, nil
}

func (o *Orchestrator) onboard(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error) {
	kind, err := params.CheckRole()
	if err != nil {
		return nil, err
	}
	if _, err = o.store.UserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}

	now := time.Now()
	result := &entity.OnboardingResult{}

	err = o.store.InTx(ctx, func(tx database.Tx) error {
		existing, err := tx.ActiveRoles(ctx, userID)
		if err != nil {
			return err
		}
		first := len(existing) == 0

		var clubID string
		switch kind {
		case entity.RoleClubManager:
			club, err := o.createClub(ctx, tx, userID, params.Club, now)
			if err != nil {
				return err
			}
			clubID = club.ID
			result.ClubID = club.ID

		case entity.RoleMember, entity.RoleParent, entity.RoleClubCoach:
			// redeem before anything is created: a bad code aborts the
			// call with no account side effects
			invite, err := o.invites.Redeem(ctx, tx, params.NormalizedInviteCode(), userID)
			if err != nil {
				return err
			}
			if invite.Role != kind {
				return fmt.Errorf("invite targets %s, not %s: %w", invite.Role, kind, entity.ErrValidation)
			}
			clubID = invite.ClubID
		}

		role, account, err := o.accounts.CreateRoleAndAccount(ctx, tx, userID, kind, clubID, first, now)
		if err != nil {
			return err
		}
		result.Role = *role
		result.Account = *account
		result.AccountNumber = account.Number

		if params.Profile != nil {
			if err = upsertProfile(ctx, tx, userID, params.Profile, now); err != nil {
				return err
			}
		}
		if kind == entity.RoleParent {
			ids, err := insertChildren(ctx, tx, userID, params.Children, now)
			if err != nil {
				return err
			}
			result.ChildIDs = ids
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Info("onboarding completed",
		slog.Int64("user_id", userID),
		slog.String("role", string(kind)),
		slog.String("account_number", result.AccountNumber))
	o.recordStep(ctx, userID, kind, "account_created")
	return result, nil
}

func (o *Orchestrator) createClub(ctx context.Context, tx database.Tx, userID int64, params *entity.ClubParams, now time.Time) (*entity.Club, error) {
	club := &entity.Club{
		ID:          uuid.New().String(),
		Name:        params.Name,
		ClubType:    params.ClubType,
		Description: params.Description,
		Email:       params.Email,
		Phone:       params.Phone,
		Country:     params.CountryCode(),
		City:        params.City,
		CreatedBy:   userID,
		CreatedAt:   now,
	}
	if err := tx.InsertClub(ctx, club); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("user %d already manages a club: %w", userID, entity.ErrConflict)
		}
		return nil, err
	}
	return club, nil
}

func upsertProfile(ctx context.Context, tx database.Tx, userID int64, params *entity.ProfileParams, now time.Time) error {
	profile := &entity.UserProfile{
		UserID:      userID,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Email:       params.Email,
		Phone:       params.Phone,
		Country:     params.Country,
		MedicalInfo: params.MedicalInfo,
		UpdatedAt:   now,
	}
	if params.DateOfBirth != "" {
		dob, err := entity.ParseDate(params.DateOfBirth)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		profile.DateOfBirth = &dob
	}
	return tx.UpsertProfile(ctx, profile)
}

// insertChildren parses dates inside the transaction: one malformed child
// entry rolls back the whole onboarding, invite use included.
func insertChildren(ctx context.Context, tx database.Tx, userID int64, children []entity.ChildParams, now time.Time) ([]string, error) {
	var ids []string
	for i := range children {
		child := &entity.UserChild{
			ID:           uuid.New().String(),
			ParentUserID: userID,
			FirstName:    children[i].FirstName,
			LastName:     children[i].LastName,
			MedicalInfo:  children[i].MedicalInfo,
			CreatedAt:    now,
		}
		if children[i].DateOfBirth != "" {
			dob, err := entity.ParseDate(children[i].DateOfBirth)
			if err != nil {
				return nil, fmt.Errorf("children[%d]: %w", i, err)
			}
			child.DateOfBirth = &dob
		}
		if err := tx.InsertChild(ctx, child); err != nil {
			return nil, err
		}
		ids = append(ids, child.ID)
	}
	return ids, nil
}

// recordStep is fire-and-forget: progress is advisory and must never fail
// a committed onboarding.
func (o *Orchestrator) recordStep(ctx context.Context, userID int64, kind entity.RoleKind, step string) {
	if o.tracker == nil {
		return
	}
	if _, err := o.tracker.RecordStep(ctx, userID, kind, step); err != nil {
		o.log.Warn("record completion step", sl.Err(err),
			slog.Int64("user_id", userID), slog.String("step", step))
	}
}

// Status answers the status endpoints: primary role, every account, which
// additional roles are still open, and the advisory completion summary.
func (o *Orchestrator) Status(ctx context.Context, userID int64) (*entity.UserStatus, error) {
	user, err := o.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	roles, err := o.store.RolesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	accountList, err := o.store.AccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &entity.UserStatus{
		User:     *user,
		Roles:    roles,
		Accounts: accountList,
	}

	held := make(map[entity.RoleKind]bool)
	var activeKinds []entity.RoleKind
	for i := range roles {
		if !roles[i].IsActive {
			continue
		}
		if roles[i].IsPrimary {
			status.PrimaryRole = roles[i].Kind
		}
		if !held[roles[i].Kind] {
			held[roles[i].Kind] = true
			activeKinds = append(activeKinds, roles[i].Kind)
		}
	}
	for _, kind := range entity.AllRoleKinds {
		if !held[kind] {
			status.AvailableRoles = append(status.AvailableRoles, kind)
		}
	}

	if o.tracker != nil {
		completion, err := o.tracker.Progress(ctx, userID, activeKinds)
		if err != nil {
			o.log.Warn("read completion progress", sl.Err(err), slog.Int64("user_id", userID))
		} else {
			status.Completion = completion
		}
	}
	return status, nil
}
