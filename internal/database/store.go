package database

import (
	"context"
	"errors"
	"time"
	"clubq/entity"
)

// ErrDuplicate is returned by inserts that hit a unique index: account
// numbers, invite codes, the one-active-role tuple and the one-club-per-
// manager key. Callers either retry with a fresh candidate or report a
// conflict; they never pre-check, the index is the source of truth.
var ErrDuplicate = errors.New("duplicate key")

// Store is the relational core behind the onboarding engine. Read methods
// run in autocommit mode; every mutation goes through InTx so the caller
// controls the unit-of-work boundary.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	UserByToken(ctx context.Context, token string) (*entity.User, error)
	UserByID(ctx context.Context, id int64) (*entity.User, error)
	RolesByUser(ctx context.Context, userID int64) ([]entity.UserRole, error)
	AccountsByUser(ctx context.Context, userID int64) ([]entity.UserAccount, error)
	AccountByNumber(ctx context.Context, number string) (*entity.UserAccount, error)
	SearchAccounts(ctx context.Context, query string, kind entity.RoleKind) ([]entity.AccountSummary, error)
	ClubByID(ctx context.Context, id string) (*entity.Club, error)
	ClubByOwner(ctx context.Context, userID int64) (*entity.Club, error)
	InviteByCode(ctx context.Context, code string) (*entity.InviteCode, error)
	InviteByID(ctx context.Context, id string) (*entity.InviteCode, error)
}

// Tx is the row-operation surface available inside one transaction.
// InviteByCodeForUpdate takes the row lock that serializes concurrent
// redemptions of the same code.
type Tx interface {
	ActiveRole(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) (*entity.UserRole, error)
	ActiveRoles(ctx context.Context, userID int64) ([]entity.UserRole, error)
	InsertRole(ctx context.Context, role *entity.UserRole) error
	DeactivateRole(ctx context.Context, roleID string, at time.Time) error
	ClearPrimaryRole(ctx context.Context, userID int64) error
	MarkPrimaryRole(ctx context.Context, roleID string) error

	InsertAccount(ctx context.Context, acc *entity.UserAccount) error
	DeactivateAccountByRole(ctx context.Context, roleID string, at time.Time) error
	AccountByRole(ctx context.Context, roleID string) (*entity.UserAccount, error)
	UpdateAccountNumber(ctx context.Context, accountID, number string) error

	ClubByOwner(ctx context.Context, userID int64) (*entity.Club, error)
	InsertClub(ctx context.Context, club *entity.Club) error

	InviteByCodeForUpdate(ctx context.Context, code string) (*entity.InviteCode, error)
	InsertInvite(ctx context.Context, invite *entity.InviteCode) error
	IncrementInviteUse(ctx context.Context, inviteID string) error
	DeactivateInvite(ctx context.Context, inviteID string) error

	UpsertProfile(ctx context.Context, profile *entity.UserProfile) error
	InsertChild(ctx context.Context, child *entity.UserChild) error
}
