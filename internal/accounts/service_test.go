package accounts

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
	"clubq/entity"
	"clubq/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() (*Service, *database.Memory) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := database.NewMemory()
	mem.SeedUser(entity.User{ID: 1, Username: "ana", Name: "Ana Petrova", Token: "tok-ana"})
	mem.SeedUser(entity.User{ID: 2, Username: "boris", Name: "Boris Ivanov", Token: "tok-boris"})
	return NewService(mem, 5, log), mem
}

func createRole(t *testing.T, s *Service, mem *database.Memory, userID int64, kind entity.RoleKind, clubID string, primary bool) (*entity.UserRole, *entity.UserAccount) {
	t.Helper()
	var role *entity.UserRole
	var account *entity.UserAccount
	err := mem.InTx(context.Background(), func(tx database.Tx) error {
		var err error
		role, account, err = s.CreateRoleAndAccount(context.Background(), tx, userID, kind, clubID, primary, time.Now())
		return err
	})
	require.NoError(t, err)
	return role, account
}

func TestCreateRoleAndAccount(t *testing.T) {
	s, mem := testService()

	role, account := createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)

	assert.True(t, role.IsActive)
	assert.True(t, role.IsPrimary)
	assert.Equal(t, entity.RoleMember, role.Kind)
	assert.True(t, entity.ValidAccountNumber(account.Number), "got %q", account.Number)
	assert.Equal(t, role.ID, account.RoleID)
	assert.Equal(t, "club-1", account.ClubID)
}

func TestCreateRoleAndAccountDuplicateActive(t *testing.T) {
	s, mem := testService()
	createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)

	err := mem.InTx(context.Background(), func(tx database.Tx) error {
		_, _, err := s.CreateRoleAndAccount(context.Background(), tx, 1, entity.RoleMember, "club-1", false, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrConflict)

	// same kind at another club is a different tuple
	err = mem.InTx(context.Background(), func(tx database.Tx) error {
		_, _, err := s.CreateRoleAndAccount(context.Background(), tx, 1, entity.RoleMember, "club-2", false, time.Now())
		return err
	})
	assert.NoError(t, err)
}

func TestManagerSecondClubRejected(t *testing.T) {
	s, mem := testService()
	mem.SeedClub(entity.Club{ID: "club-1", Name: "First", CreatedBy: 1})

	err := mem.InTx(context.Background(), func(tx database.Tx) error {
		_, _, err := s.CreateRoleAndAccount(context.Background(), tx, 1, entity.RoleClubManager, "club-2", true, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrConflict)
}

func TestManagerRoleForOwnClub(t *testing.T) {
	s, mem := testService()

	// the club row lands in the same transaction right before the role
	err := mem.InTx(context.Background(), func(tx database.Tx) error {
		club := &entity.Club{ID: "club-new", Name: "Fresh Club", CreatedBy: 1, CreatedAt: time.Now()}
		if err := tx.InsertClub(context.Background(), club); err != nil {
			return err
		}
		_, _, err := s.CreateRoleAndAccount(context.Background(), tx, 1, entity.RoleClubManager, club.ID, true, time.Now())
		return err
	})
	assert.NoError(t, err)
}

// scriptedSource plays back queued numbers, repeating the last one once
// the queue runs out.
type scriptedSource struct {
	numbers []string
	calls   int
}

func (g *scriptedSource) Number() string {
	i := g.calls
	if i >= len(g.numbers) {
		i = len(g.numbers) - 1
	}
	g.calls++
	return g.numbers[i]
}

func TestReserveAccountRetriesOnCollision(t *testing.T) {
	s, mem := testService()
	_, taken := createRole(t, s, mem, 2, entity.RoleMember, "club-1", true)

	gen := &scriptedSource{numbers: []string{taken.Number, taken.Number, "CQ000000042"}}
	s.gen = gen

	_, account := createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)
	assert.Equal(t, "CQ000000042", account.Number)
	assert.Equal(t, 3, gen.calls)
}

func TestReserveAccountAttemptsExhausted(t *testing.T) {
	s, mem := testService()
	_, taken := createRole(t, s, mem, 2, entity.RoleMember, "club-1", true)

	s.gen = &scriptedSource{numbers: []string{taken.Number}}

	err := mem.InTx(context.Background(), func(tx database.Tx) error {
		_, _, err := s.CreateRoleAndAccount(context.Background(), tx, 1, entity.RoleMember, "club-1", true, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrAccountNumberExhausted)
}

func TestDeactivateRole(t *testing.T) {
	s, mem := testService()
	_, account := createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)

	require.NoError(t, s.DeactivateRole(context.Background(), 1, entity.RoleMember, "club-1"))

	roles, err := s.ListRoles(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.False(t, roles[0].IsActive)
	assert.False(t, roles[0].IsPrimary)
	assert.NotNil(t, roles[0].DeactivatedAt)

	accounts, err := s.ListAccounts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.False(t, accounts[0].IsActive)
	assert.Equal(t, account.Number, accounts[0].Number)

	// repeating the call is a no-op
	assert.NoError(t, s.DeactivateRole(context.Background(), 1, entity.RoleMember, "club-1"))

	// the tuple is free again after deactivation
	_, fresh := createRole(t, s, mem, 1, entity.RoleMember, "club-1", false)
	assert.NotEqual(t, account.Number, fresh.Number)
}

func TestSetPrimaryRole(t *testing.T) {
	s, mem := testService()
	createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)
	createRole(t, s, mem, 1, entity.RoleParent, "club-1", false)

	require.NoError(t, s.SetPrimaryRole(context.Background(), 1, entity.RoleParent))

	roles, err := s.ListRoles(context.Background(), 1)
	require.NoError(t, err)
	primary := map[entity.RoleKind]bool{}
	for _, r := range roles {
		primary[r.Kind] = r.IsPrimary
	}
	assert.False(t, primary[entity.RoleMember])
	assert.True(t, primary[entity.RoleParent])

	err = s.SetPrimaryRole(context.Background(), 1, entity.RoleClubCoach)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestAccountByNumber(t *testing.T) {
	s, mem := testService()
	mem.SeedClub(entity.Club{ID: "club-1", Name: "River Chess Club", CreatedBy: 9})
	_, account := createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)

	sum, err := s.AccountByNumber(context.Background(), account.Number)
	require.NoError(t, err)
	assert.Equal(t, "Ana Petrova", sum.UserName)
	assert.Equal(t, "River Chess Club", sum.ClubName)

	_, err = s.AccountByNumber(context.Background(), "CQ999999999")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = s.AccountByNumber(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestSearch(t *testing.T) {
	s, mem := testService()
	_, account := createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)
	createRole(t, s, mem, 2, entity.RoleParent, "club-1", true)

	_, err := s.Search(context.Background(), "a", "")
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = s.Search(context.Background(), "ana", "admin")
	assert.ErrorIs(t, err, entity.ErrValidation)

	results, err := s.Search(context.Background(), "Ana", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, account.Number, results[0].Account.Number)

	results, err = s.Search(context.Background(), account.Number, "parent")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRegenerateNumber(t *testing.T) {
	s, mem := testService()
	_, account := createRole(t, s, mem, 1, entity.RoleMember, "club-1", true)

	number, err := s.RegenerateNumber(context.Background(), 1, entity.RoleMember, "club-1")
	require.NoError(t, err)
	assert.True(t, entity.ValidAccountNumber(number))
	assert.NotEqual(t, account.Number, number)

	_, err = s.AccountByNumber(context.Background(), account.Number)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = s.RegenerateNumber(context.Background(), 2, entity.RoleMember, "club-1")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
