package onboarding

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	"clubq/entity"
	"clubq/internal/accounts"
	"clubq/internal/database"
	"clubq/internal/invites"
	"clubq/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressStore struct {
	mu    sync.Mutex
	steps map[int64]map[entity.RoleKind][]string
}

func newProgressStore() *progressStore {
	return &progressStore{steps: make(map[int64]map[entity.RoleKind][]string)}
}

func (s *progressStore) AddStep(_ context.Context, userID int64, role entity.RoleKind, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.steps[userID] == nil {
		s.steps[userID] = make(map[entity.RoleKind][]string)
	}
	for _, existing := range s.steps[userID][role] {
		if existing == step {
			return nil
		}
	}
	s.steps[userID][role] = append(s.steps[userID][role], step)
	return nil
}

func (s *progressStore) StepsByUser(_ context.Context, userID int64) (map[entity.RoleKind][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[entity.RoleKind][]string)
	for role, steps := range s.steps[userID] {
		result[role] = append([]string(nil), steps...)
	}
	return result, nil
}

func testOrchestrator() (*Orchestrator, *database.Memory, *progressStore) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := database.NewMemory()
	mem.SeedUser(entity.User{ID: 1, Username: "maria", Name: "Maria Lopez", Token: "tok-1"})
	mem.SeedUser(entity.User{ID: 2, Username: "ivan", Name: "Ivan Dimitrov", Token: "tok-2"})

	accountService := accounts.NewService(mem, 5, log)
	registry := invites.NewRegistry(mem, invites.Config{}, log)
	o := New(mem, accountService, registry, log)

	steps := newProgressStore()
	o.SetTracker(progress.NewTracker(steps, log))
	return o, mem, steps
}

func seedMemberInvite(mem *database.Memory, code string, role entity.RoleKind, limit int) {
	mem.SeedClub(entity.Club{ID: "club-9", Name: "Harbor Swim Club", CreatedBy: 99})
	mem.SeedInvite(entity.InviteCode{
		ID: "inv-" + code, ClubID: "club-9", Code: code, Role: role,
		UsageLimit: limit, IsActive: true, CreatedBy: 99, CreatedAt: time.Now(),
	})
}

func TestManagerOnboarding(t *testing.T) {
	o, mem, steps := testOrchestrator()

	result, err := o.CompleteOnboarding(context.Background(), 1, &entity.OnboardingParams{
		Role: "club_manager",
		Club: &entity.ClubParams{Name: "River Chess Club", ClubType: "chess", Country: "Spain"},
		Profile: &entity.ProfileParams{
			FirstName: "Maria", LastName: "Lopez", DateOfBirth: "1985-06-01",
		},
	})
	require.NoError(t, err)

	assert.True(t, entity.ValidAccountNumber(result.AccountNumber))
	assert.Contains(t, result.Message, result.AccountNumber)
	assert.True(t, result.Role.IsPrimary)
	require.NotEmpty(t, result.ClubID)

	club, err := mem.ClubByID(context.Background(), result.ClubID)
	require.NoError(t, err)
	assert.Equal(t, "River Chess Club", club.Name)
	assert.Equal(t, "ES", club.Country)
	assert.Equal(t, int64(1), club.CreatedBy)

	recorded, err := steps.StepsByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, recorded[entity.RoleClubManager], "account_created")
}

func TestManagerCannotOwnTwoClubs(t *testing.T) {
	o, _, _ := testOrchestrator()

	params := &entity.OnboardingParams{
		Role: "club_manager",
		Club: &entity.ClubParams{Name: "First Club", ClubType: "chess"},
	}
	_, err := o.CompleteOnboarding(context.Background(), 1, params)
	require.NoError(t, err)

	params.Club.Name = "Second Club"
	_, err = o.AddRole(context.Background(), 1, params)
	assert.ErrorIs(t, err, entity.ErrConflict)
}

func TestMemberOnboardingViaInvite(t *testing.T) {
	o, mem, _ := testOrchestrator()
	seedMemberInvite(mem, "AB12CD34", entity.RoleMember, 2)

	result, err := o.CompleteOnboarding(context.Background(), 2, &entity.OnboardingParams{
		Role:           "member",
		ClubInviteCode: "ab12cd34",
	})
	require.NoError(t, err)
	assert.Equal(t, "club-9", result.Role.ClubID)
	assert.True(t, result.Role.IsPrimary)

	invite, err := mem.InviteByCode(context.Background(), "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, 1, invite.UsedCount)
}

func TestOnboardingRejectsBadInvite(t *testing.T) {
	o, mem, _ := testOrchestrator()
	seedMemberInvite(mem, "AB12CD34", entity.RoleMember, 1)

	_, err := o.CompleteOnboarding(context.Background(), 2, &entity.OnboardingParams{
		Role:           "member",
		ClubInviteCode: "WRONG123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInviteNotFound)
	assert.Equal(t, "Invite code not found", entity.UserMessage(err))

	// a member invite cannot carry a parent onboarding
	_, err = o.CompleteOnboarding(context.Background(), 2, &entity.OnboardingParams{
		Role:           "parent",
		ClubInviteCode: "AB12CD34",
	})
	assert.ErrorIs(t, err, entity.ErrValidation)

	// role mismatch must not burn a use
	invite, err := mem.InviteByCode(context.Background(), "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, 0, invite.UsedCount)
}

func TestParentOnboardingWithChildren(t *testing.T) {
	o, mem, _ := testOrchestrator()
	seedMemberInvite(mem, "PARENT01", entity.RoleParent, 1)

	result, err := o.CompleteOnboarding(context.Background(), 2, &entity.OnboardingParams{
		Role:           "parent",
		ClubInviteCode: "PARENT01",
		Profile:        &entity.ProfileParams{FirstName: "Ivan", LastName: "Dimitrov"},
		Children: []entity.ChildParams{
			{FirstName: "Mia", LastName: "Dimitrova", DateOfBirth: "2014-03-09"},
			{FirstName: "Leo", LastName: "Dimitrov", DateOfBirth: "2016-11-21"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.ChildIDs, 2)

	children := mem.ChildrenOfParent(2)
	require.Len(t, children, 2)
	for _, c := range children {
		assert.NotNil(t, c.DateOfBirth)
	}
}

// A malformed child entry inside the payload must roll everything back:
// no role, no account, and the invite use is returned.
func TestParentOnboardingIsAtomic(t *testing.T) {
	o, mem, _ := testOrchestrator()
	seedMemberInvite(mem, "PARENT01", entity.RoleParent, 1)

	_, err := o.CompleteOnboarding(context.Background(), 2, &entity.OnboardingParams{
		Role:           "parent",
		ClubInviteCode: "PARENT01",
		Children: []entity.ChildParams{
			{FirstName: "Mia", LastName: "Dimitrova", DateOfBirth: "not-a-date"},
		},
	})
	assert.ErrorIs(t, err, entity.ErrValidation)

	roles, err := mem.RolesByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, roles)

	accountRows, err := mem.AccountsByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, accountRows)

	invite, err := mem.InviteByCode(context.Background(), "PARENT01")
	require.NoError(t, err)
	assert.Equal(t, 0, invite.UsedCount)
	assert.Empty(t, mem.ChildrenOfParent(2))
}

func TestAddRoleKeepsPrimary(t *testing.T) {
	o, mem, _ := testOrchestrator()
	seedMemberInvite(mem, "AB12CD34", entity.RoleMember, 5)

	first, err := o.CompleteOnboarding(context.Background(), 1, &entity.OnboardingParams{
		Role: "club_manager",
		Club: &entity.ClubParams{Name: "River Chess Club", ClubType: "chess"},
	})
	require.NoError(t, err)
	assert.True(t, first.Role.IsPrimary)

	second, err := o.AddRole(context.Background(), 1, &entity.OnboardingParams{
		Role:           "member",
		ClubInviteCode: "AB12CD34",
	})
	require.NoError(t, err)
	assert.False(t, second.Role.IsPrimary)
	assert.NotEqual(t, first.AccountNumber, second.AccountNumber)

	status, err := o.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleClubManager, status.PrimaryRole)
}

func TestOnboardingUnknownUser(t *testing.T) {
	o, _, _ := testOrchestrator()

	_, err := o.CompleteOnboarding(context.Background(), 404, &entity.OnboardingParams{
		Role: "club_manager",
		Club: &entity.ClubParams{Name: "Ghost Club", ClubType: "chess"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestStatus(t *testing.T) {
	o, mem, _ := testOrchestrator()
	seedMemberInvite(mem, "AB12CD34", entity.RoleMember, 1)

	_, err := o.CompleteOnboarding(context.Background(), 2, &entity.OnboardingParams{
		Role:           "member",
		ClubInviteCode: "AB12CD34",
	})
	require.NoError(t, err)

	status, err := o.Status(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, status.PrimaryRole)
	assert.Len(t, status.Roles, 1)
	assert.Len(t, status.Accounts, 1)
	assert.ElementsMatch(t, []entity.RoleKind{
		entity.RoleClubManager, entity.RoleParent, entity.RoleClubCoach,
	}, status.AvailableRoles)

	require.NotNil(t, status.Completion)
	require.Len(t, status.Completion.PerRole, 1)
	member := status.Completion.PerRole[0]
	assert.Equal(t, entity.RoleMember, member.Role)
	assert.Contains(t, member.CompletedSteps, "account_created")
	assert.Equal(t, 33, member.Percent)
}
