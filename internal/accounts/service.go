package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"clubq/entity"
	"clubq/internal/database"
	"clubq/lib/sl"

	"github.com/google/uuid"
)

// Service is the role-account store: it owns the UserRole+UserAccount pair
// lifecycle. Every mutation is one unit of work: either the pair commits
// fully or nothing changes.
type Service struct {
	store    database.Store
	gen      NumberSource
	attempts int
	log      *slog.Logger
}

func NewService(store database.Store, reserveAttempts int, log *slog.Logger) *Service {
	if reserveAttempts <= 0 {
		reserveAttempts = 5
	}
	return &Service{
		store:    store,
		gen:      Generator{},
		attempts: reserveAttempts,
		log:      log.With(sl.Module("accounts")),
	}
}

// CreateRoleAndAccount inserts the role and reserves an account number
// inside the caller's transaction. Duplicate active roles and a second
// club for a manager surface as ErrConflict; number reservation retries
// bounded times against the unique index before giving up.
func (s *Service) CreateRoleAndAccount(ctx context.Context, tx database.Tx, userID int64, kind entity.RoleKind, clubID string, primary bool, now time.Time) (*entity.UserRole, *entity.UserAccount, error) {
	if kind == entity.RoleClubManager {
		// clubID is the club this role is being attached to, the caller may
		// have inserted it earlier in the same transaction
		if club, err := tx.ClubByOwner(ctx, userID); err == nil {
			if club.ID != clubID {
				return nil, nil, fmt.Errorf("user %d already manages a club: %w", userID, entity.ErrConflict)
			}
		} else if !errors.Is(err, entity.ErrNotFound) {
			return nil, nil, err
		}
	}

	role := &entity.UserRole{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		ClubID:    clubID,
		IsPrimary: primary,
		IsActive:  true,
		CreatedAt: now,
	}
	if err := tx.InsertRole(ctx, role); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, nil, fmt.Errorf("active %s role already exists: %w", kind, entity.ErrConflict)
		}
		return nil, nil, err
	}

	account, err := s.reserveAccount(ctx, tx, role, now)
	if err != nil {
		return nil, nil, err
	}
	return role, account, nil
}

// reserveAccount claims a number on the unique index: insert, and on a
// duplicate-key regenerate and try again. No pre-check, correctness holds
// regardless of process count because the index is the arbiter.
func (s *Service) reserveAccount(ctx context.Context, tx database.Tx, role *entity.UserRole, now time.Time) (*entity.UserAccount, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		account := &entity.UserAccount{
			ID:        uuid.New().String(),
			RoleID:    role.ID,
			UserID:    role.UserID,
			Number:    s.gen.Number(),
			Kind:      role.Kind,
			ClubID:    role.ClubID,
			IsActive:  true,
			CreatedAt: now,
		}
		err := tx.InsertAccount(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return nil, err
		}
		s.log.Debug("account number collision, regenerating",
			slog.String("number", account.Number), slog.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("no unique number in %d attempts: %w", s.attempts, entity.ErrAccountNumberExhausted)
}

// DeactivateRole soft-deactivates the (user, kind, club) role and its
// account. Idempotent: a missing or already inactive role is not an error.
// The caller chooses a new primary separately, there is no implicit
// promotion.
func (s *Service) DeactivateRole(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) error {
	return s.store.InTx(ctx, func(tx database.Tx) error {
		role, err := tx.ActiveRole(ctx, userID, kind, clubID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return nil
			}
			return err
		}
		now := time.Now()
		if err = tx.DeactivateRole(ctx, role.ID, now); err != nil {
			return err
		}
		return tx.DeactivateAccountByRole(ctx, role.ID, now)
	})
}

// SetPrimaryRole moves the primary designation to an active role of the
// given kind; fails with ErrNotFound when the user holds no such role.
func (s *Service) SetPrimaryRole(ctx context.Context, userID int64, kind entity.RoleKind) error {
	return s.store.InTx(ctx, func(tx database.Tx) error {
		roles, err := tx.ActiveRoles(ctx, userID)
		if err != nil {
			return err
		}
		var target *entity.UserRole
		for i := range roles {
			if roles[i].Kind == kind {
				target = &roles[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no active %s role for user %d: %w", kind, userID, entity.ErrNotFound)
		}
		if err = tx.ClearPrimaryRole(ctx, userID); err != nil {
			return err
		}
		return tx.MarkPrimaryRole(ctx, target.ID)
	})
}

// ListRoles returns every role row for the user, active and deactivated.
func (s *Service) ListRoles(ctx context.Context, userID int64) ([]entity.UserRole, error) {
	return s.store.RolesByUser(ctx, userID)
}

// ListAccounts returns every account row for the user.
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]entity.UserAccount, error) {
	return s.store.AccountsByUser(ctx, userID)
}

// AccountByNumber resolves an account number to the account and its owner.
func (s *Service) AccountByNumber(ctx context.Context, number string) (*entity.AccountSummary, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !entity.ValidAccountNumber(number) {
		return nil, fmt.Errorf("malformed account number %q: %w", number, entity.ErrValidation)
	}
	account, err := s.store.AccountByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", number, err)
	}
	sum := &entity.AccountSummary{Account: *account}
	if user, err := s.store.UserByID(ctx, account.UserID); err == nil {
		sum.UserName = user.Name
	}
	if account.ClubID != "" {
		if club, err := s.store.ClubByID(ctx, account.ClubID); err == nil {
			sum.ClubName = club.Name
		}
	}
	return sum, nil
}

// Search matches accounts by number or owner name; queries shorter than
// two characters are rejected.
func (s *Service) Search(ctx context.Context, query string, roleFilter string) ([]entity.AccountSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("query must be at least 2 characters: %w", entity.ErrValidation)
	}
	var kind entity.RoleKind
	if roleFilter != "" {
		parsed, err := entity.ParseRoleKind(roleFilter)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}
	return s.store.SearchAccounts(ctx, query, kind)
}

// RegenerateNumber assigns a fresh unique number to the active account of
// the given role. Administrative operation; the old number is released.
func (s *Service) RegenerateNumber(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) (string, error) {
	var number string
	err := s.store.InTx(ctx, func(tx database.Tx) error {
		role, err := tx.ActiveRole(ctx, userID, kind, clubID)
		if err != nil {
			return fmt.Errorf("active %s role: %w", kind, err)
		}
		account, err := tx.AccountByRole(ctx, role.ID)
		if err != nil {
			return fmt.Errorf("account of role %s: %w", role.ID, err)
		}
		for attempt := 0; attempt < s.attempts; attempt++ {
			candidate := s.gen.Number()
			err = tx.UpdateAccountNumber(ctx, account.ID, candidate)
			if err == nil {
				number = candidate
				return nil
			}
			if !errors.Is(err, database.ErrDuplicate) {
				return err
			}
		}
		return fmt.Errorf("no unique number in %d attempts: %w", s.attempts, entity.ErrAccountNumberExhausted)
	})
	if err != nil {
		return "", err
	}
	s.log.Info("account number regenerated",
		slog.Int64("user_id", userID), slog.String("role", string(kind)))
	return number, nil
}
