package invites

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"clubq/entity"
	"clubq/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() (*Registry, *database.Memory) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := database.NewMemory()
	mem.SeedUser(entity.User{ID: 1, Username: "manager", Name: "Club Manager", Token: "tok-1"})
	mem.SeedUser(entity.User{ID: 2, Username: "joiner", Name: "New Member", Token: "tok-2"})
	mem.SeedClub(entity.Club{ID: "club-1", Name: "River Chess Club", CreatedBy: 1})
	return NewRegistry(mem, Config{CodeLength: 8, DefaultUsageLimit: 1, DefaultTTLHours: 720}, log), mem
}

func seedInvite(mem *database.Memory, code string, limit, used int, expires *time.Time, active bool) entity.InviteCode {
	invite := entity.InviteCode{
		ID:         "inv-" + code,
		ClubID:     "club-1",
		Code:       code,
		Role:       entity.RoleMember,
		ExpiresAt:  expires,
		UsageLimit: limit,
		UsedCount:  used,
		IsActive:   active,
		CreatedBy:  1,
		CreatedAt:  time.Now(),
	}
	mem.SeedInvite(invite)
	return invite
}

func TestCreateInvite(t *testing.T) {
	r, _ := testRegistry()

	invite, err := r.Create(context.Background(), "club-1", 1, entity.RoleMember, nil, nil)
	require.NoError(t, err)
	assert.Len(t, invite.Code, 8)
	assert.Equal(t, strings.ToUpper(invite.Code), invite.Code)
	assert.Equal(t, 1, invite.UsageLimit)
	require.NotNil(t, invite.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(720*time.Hour), *invite.ExpiresAt, time.Minute)

	limit := 25
	invite, err = r.Create(context.Background(), "club-1", 1, entity.RoleParent, nil, &limit)
	require.NoError(t, err)
	assert.Equal(t, 25, invite.UsageLimit)
}

func TestCreateInviteRejections(t *testing.T) {
	r, _ := testRegistry()

	_, err := r.Create(context.Background(), "club-1", 1, entity.RoleClubManager, nil, nil)
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = r.Create(context.Background(), "club-1", 2, entity.RoleMember, nil, nil)
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	_, err = r.Create(context.Background(), "no-such-club", 1, entity.RoleMember, nil, nil)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	past := time.Now().Add(-time.Hour)
	_, err = r.Create(context.Background(), "club-1", 1, entity.RoleMember, &past, nil)
	assert.ErrorIs(t, err, entity.ErrValidation)

	zero := 0
	_, err = r.Create(context.Background(), "club-1", 1, entity.RoleMember, nil, &zero)
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestValidateInvite(t *testing.T) {
	r, mem := testRegistry()
	seedInvite(mem, "GOODCODE", 5, 2, nil, true)

	result, err := r.Validate(context.Background(), "goodcode")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, entity.InviteActive, result.Status)
	assert.Equal(t, 3, result.RemainingUses)
	require.NotNil(t, result.Club)
	assert.Equal(t, "River Chess Club", result.Club.Name)

	_, err = r.Validate(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, entity.ErrInviteNotFound)

	seedInvite(mem, "USEDCODE", 1, 1, nil, true)
	result, err = r.Validate(context.Background(), "USEDCODE")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, entity.InviteExhausted, result.Status)
}

func TestPreviewInvite(t *testing.T) {
	r, mem := testRegistry()
	seedInvite(mem, "GOODCODE", 5, 0, nil, true)

	preview, err := r.Preview(context.Background(), "GOODCODE", 2)
	require.NoError(t, err)
	assert.True(t, preview.UserCanJoin)
	assert.False(t, preview.AlreadyMember)
	assert.Equal(t, "You can join as member", preview.Message)

	// a user with an active role at the club cannot join again
	require.NoError(t, mem.InTx(context.Background(), func(tx database.Tx) error {
		return tx.InsertRole(context.Background(), &entity.UserRole{
			ID: "role-1", UserID: 2, Kind: entity.RoleMember, ClubID: "club-1",
			IsActive: true, CreatedAt: time.Now(),
		})
	}))
	preview, err = r.Preview(context.Background(), "GOODCODE", 2)
	require.NoError(t, err)
	assert.False(t, preview.UserCanJoin)
	assert.True(t, preview.AlreadyMember)
	assert.Equal(t, "You already belong to this club", preview.Message)

	expired := time.Now().Add(-time.Hour)
	seedInvite(mem, "OLDCODE1", 5, 0, &expired, true)
	preview, err = r.Preview(context.Background(), "OLDCODE1", 2)
	require.NoError(t, err)
	assert.False(t, preview.UserCanJoin)
	assert.Equal(t, "Invite code has expired", preview.Message)
}

func TestRedeem(t *testing.T) {
	r, mem := testRegistry()
	seedInvite(mem, "GOODCODE", 2, 0, nil, true)

	err := mem.InTx(context.Background(), func(tx database.Tx) error {
		invite, err := r.Redeem(context.Background(), tx, "goodcode", 2)
		require.NoError(t, err)
		assert.Equal(t, 1, invite.UsedCount)
		assert.Equal(t, 1, invite.RemainingUses())
		return nil
	})
	require.NoError(t, err)

	stored, err := mem.InviteByCode(context.Background(), "GOODCODE")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestRedeemRejections(t *testing.T) {
	r, mem := testRegistry()
	expired := time.Now().Add(-time.Minute)
	seedInvite(mem, "OLDCODE1", 1, 0, &expired, true)
	seedInvite(mem, "USEDCODE", 1, 1, nil, true)
	seedInvite(mem, "DEADCODE", 1, 0, nil, false)

	cases := []struct {
		code string
		want error
	}{
		{"MISSING1", entity.ErrInviteNotFound},
		{"OLDCODE1", entity.ErrExpired},
		{"USEDCODE", entity.ErrExhausted},
		{"DEADCODE", entity.ErrDeactivated},
	}
	for _, tc := range cases {
		err := mem.InTx(context.Background(), func(tx database.Tx) error {
			_, err := r.Redeem(context.Background(), tx, tc.code, 2)
			return err
		})
		assert.ErrorIs(t, err, tc.want, "code %s", tc.code)
	}
}

// Forty workers race for three uses; exactly three must win and the
// counter must land exactly on the limit.
func TestRedeemConcurrentNeverOversells(t *testing.T) {
	r, mem := testRegistry()
	invite := seedInvite(mem, "LASTSEAT", 3, 0, nil, true)

	const workers = 40
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- mem.InTx(context.Background(), func(tx database.Tx) error {
				_, err := r.Redeem(context.Background(), tx, "LASTSEAT", 2)
				return err
			})
		}()
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, entity.ErrExhausted)
			lost++
		}
	}
	assert.Equal(t, 3, won)
	assert.Equal(t, workers-3, lost)

	stored, err := mem.InviteByID(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.UsedCount)
}

func TestDeactivateInvite(t *testing.T) {
	r, mem := testRegistry()
	invite := seedInvite(mem, "GOODCODE", 5, 0, nil, true)

	err := r.Deactivate(context.Background(), invite.ID, 2)
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	require.NoError(t, r.Deactivate(context.Background(), invite.ID, 1))

	stored, err := mem.InviteByID(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// terminal and repeatable
	require.NoError(t, r.Deactivate(context.Background(), invite.ID, 1))

	err = r.Deactivate(context.Background(), "no-such-id", 1)
	assert.ErrorIs(t, err, entity.ErrInviteNotFound)
}
