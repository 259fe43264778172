package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInviteCodeStatus(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	t.Run("active", func(t *testing.T) {
		c := InviteCode{IsActive: true, ExpiresAt: &future, UsageLimit: 5, UsedCount: 2}
		assert.Equal(t, InviteActive, c.Status(now))
		assert.NoError(t, c.RedeemError(now))
	})

	t.Run("expired", func(t *testing.T) {
		c := InviteCode{IsActive: true, ExpiresAt: &past, UsageLimit: 5}
		assert.Equal(t, InviteExpired, c.Status(now))
		assert.ErrorIs(t, c.RedeemError(now), ErrExpired)
	})

	t.Run("exhausted", func(t *testing.T) {
		c := InviteCode{IsActive: true, ExpiresAt: &future, UsageLimit: 3, UsedCount: 3}
		assert.Equal(t, InviteExhausted, c.Status(now))
		assert.ErrorIs(t, c.RedeemError(now), ErrExhausted)
	})

	t.Run("no expiry never expires", func(t *testing.T) {
		c := InviteCode{IsActive: true, UsageLimit: 1}
		assert.Equal(t, InviteActive, c.Status(now))
	})

	t.Run("deactivation wins over expiry", func(t *testing.T) {
		c := InviteCode{IsActive: false, ExpiresAt: &past, UsageLimit: 1, UsedCount: 1}
		assert.Equal(t, InviteDeactivated, c.Status(now))
		assert.ErrorIs(t, c.RedeemError(now), ErrDeactivated)
	})

	t.Run("expiry wins over exhaustion", func(t *testing.T) {
		c := InviteCode{IsActive: true, ExpiresAt: &past, UsageLimit: 1, UsedCount: 1}
		assert.Equal(t, InviteExpired, c.Status(now))
	})
}

func TestInviteCodeRemainingUses(t *testing.T) {
	c := InviteCode{UsageLimit: 3, UsedCount: 1}
	assert.Equal(t, 2, c.RemainingUses())

	c.UsedCount = 3
	assert.Equal(t, 0, c.RemainingUses())

	// never negative even if a bad row over-counted
	c.UsedCount = 5
	assert.Equal(t, 0, c.RemainingUses())
}

func TestUserMessageForInviteErrors(t *testing.T) {
	assert.Equal(t, "Invite code not found", UserMessage(ErrInviteNotFound))
	assert.Equal(t, "Invite code has expired", UserMessage(ErrExpired))
	assert.Equal(t, "Invite code has no remaining uses", UserMessage(ErrExhausted))
	assert.Equal(t, "Invite code has been deactivated", UserMessage(ErrDeactivated))
}
