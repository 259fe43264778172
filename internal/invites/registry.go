package invites

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

// Config bounds invite creation: generated code length and the defaults
// applied when the creator omits a usage limit or expiry.
type Config struct {
	CodeLength        int
	DefaultUsageLimit int
	DefaultTTLHours   int
}

// Registry creates club invite codes and redeems them atomically. Per-code
// state machine: active → exhausted | expired | deactivated, all terminal.
type Registry struct {
	store  database.Store
	config Config
	log    *slog.Logger
}

func NewRegistry(store database.Store, config Config, log *slog.Logger) *Registry {
	if config.CodeLength == 0 {
		config.CodeLength = 8
	}
	if config.DefaultUsageLimit == 0 {
		config.DefaultUsageLimit = 1
	}
	if config.DefaultTTLHours == 0 {
		config.DefaultTTLHours = 720
	}
	return &Registry{
		store:  store,
		config: config,
		log:    log.With(sl.Module("invites")),
	}
}

// normalize upper-cases an input code; comparison is case-insensitive by
// convention, the stored form is upper-case.
func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *Registry) newCode() string {
	code := uuid.New().String()
	code = strings.ReplaceAll(code, "-", "")
	if len(code) > r.config.CodeLength {
		code = code[:r.config.CodeLength]
	}
	return strings.ToUpper(code)
}

// Create issues a new invite for the club. The requester must hold the
// active club_manager role at that club; the target role must be one that
// joins through invites. Code collisions retry against the unique index.
func (r *Registry) Create(ctx context.Context, clubID string, requesterID int64, role entity.RoleKind, expiresAt *time.Time, usageLimit *int) (*entity.InviteCode, error) {
	if !role.NeedsInvite() {
		return nil, fmt.Errorf("invites target member or parent, not %s: %w", role, entity.ErrValidation)
	}
	club, err := r.store.ClubByID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("club %s: %w", clubID, err)
	}
	if club.CreatedBy != requesterID {
		return nil, fmt.Errorf("user %d does not manage club %s: %w", requesterID, clubID, entity.ErrUnauthorized)
	}

	limit := r.config.DefaultUsageLimit
	if usageLimit != nil {
		if *usageLimit < 1 {
			return nil, fmt.Errorf("usage limit must be positive: %w", entity.ErrValidation)
		}
		limit = *usageLimit
	}
	now := time.Now()
	if expiresAt == nil {
		ttl := now.Add(time.Duration(r.config.DefaultTTLHours) * time.Hour)
		expiresAt = &ttl
	} else if expiresAt.Before(now) {
		return nil, fmt.Errorf("expiry is in the past: %w", entity.ErrValidation)
	}

	var invite *entity.InviteCode
	err = r.store.InTx(ctx, func(tx database.Tx) error {
		for attempt := 0; attempt < 5; attempt++ {
			candidate := &entity.InviteCode{
				ID:         uuid.New().String(),
				ClubID:     clubID,
				Code:       r.newCode(),
				Role:       role,
				ExpiresAt:  expiresAt,
				UsageLimit: limit,
				IsActive:   true,
				CreatedBy:  requesterID,
				CreatedAt:  now,
			}
			err := tx.InsertInvite(ctx, candidate)
			if err == nil {
				invite = candidate
				return nil
			}
			if !errors.Is(err, database.ErrDuplicate) {
				return err
			}
		}
		return fmt.Errorf("invite code collisions exhausted retries: %w", entity.ErrTransient)
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("invite code created",
		slog.String("club_id", clubID),
		slog.String("role", string(role)),
		slog.Int("usage_limit", limit),
		sl.Secret("code", invite.Code))
	return invite, nil
}

// Validate reports whether the code could be redeemed right now, without
// consuming a use. The answer can be stale by the time a write happens;
// redemption re-checks everything under the row lock.
func (r *Registry) Validate(ctx context.Context, code string) (*entity.InviteValidation, error) {
	invite, err := r.store.InviteByCode(ctx, normalize(code))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrInviteNotFound
		}
		return nil, err
	}
	status := invite.Status(time.Now())
	result := &entity.InviteValidation{
		Valid:         status == entity.InviteActive,
		Status:        status,
		Role:          invite.Role,
		ExpiresAt:     invite.ExpiresAt,
		RemainingUses: invite.RemainingUses(),
	}
	if club, err := r.store.ClubByID(ctx, invite.ClubID); err == nil {
		result.Club = club
	}
	return result, nil
}

// Preview is the per-user variant of Validate: it also reports whether the
// requesting user already holds an active role at the code's club.
func (r *Registry) Preview(ctx context.Context, code string, userID int64) (*entity.InvitePreview, error) {
	invite, err := r.store.InviteByCode(ctx, normalize(code))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrInviteNotFound
		}
		return nil, err
	}

	preview := &entity.InvitePreview{}
	if club, err := r.store.ClubByID(ctx, invite.ClubID); err == nil {
		preview.Club = club
	}

	roles, err := r.store.RolesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].IsActive && roles[i].ClubID == invite.ClubID {
			preview.AlreadyMember = true
			break
		}
	}

	if redeemErr := invite.RedeemError(time.Now()); redeemErr != nil {
		preview.Message = entity.UserMessage(redeemErr)
		return preview, nil
	}
	if preview.AlreadyMember {
		preview.Message = "You already belong to this club"
		return preview, nil
	}
	preview.UserCanJoin = true
	preview.Message = fmt.Sprintf("You can join as %s", invite.Role)
	return preview, nil
}

// Redeem consumes one use inside the caller's transaction. Order matters:
// take the row lock, re-check state on the locked row, then increment.
// Two racing redemptions of the last use serialize on the lock and the
// second one sees used_count already at the limit.
func (r *Registry) Redeem(ctx context.Context, tx database.Tx, code string, userID int64) (*entity.InviteCode, error) {
	invite, err := tx.InviteByCodeForUpdate(ctx, normalize(code))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrInviteNotFound
		}
		return nil, err
	}
	if redeemErr := invite.RedeemError(time.Now()); redeemErr != nil {
		return nil, fmt.Errorf("invite %s: %w", invite.ID, redeemErr)
	}
	if err = tx.IncrementInviteUse(ctx, invite.ID); err != nil {
		return nil, err
	}
	invite.UsedCount++

	r.log.Debug("invite redeemed",
		slog.String("invite_id", invite.ID),
		slog.Int64("user_id", userID),
		slog.Int("remaining", invite.RemainingUses()))
	return invite, nil
}

// Deactivate flips the terminal is_active flag. Only the club owner may do
// it; repeating the call is a no-op.
func (r *Registry) Deactivate(ctx context.Context, inviteID string, requesterID int64) error {
	invite, err := r.store.InviteByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.ErrInviteNotFound
		}
		return err
	}
	club, err := r.store.ClubByID(ctx, invite.ClubID)
	if err != nil {
		return err
	}
	if club.CreatedBy != requesterID {
		return fmt.Errorf("user %d does not manage club %s: %w", requesterID, club.ID, entity.ErrUnauthorized)
	}
	return r.store.InTx(ctx, func(tx database.Tx) error {
		return tx.DeactivateInvite(ctx, inviteID)
	})
}
