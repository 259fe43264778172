package progress

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"clubq/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	steps map[int64]map[entity.RoleKind][]string
}

func (s *memStore) AddStep(_ context.Context, userID int64, role entity.RoleKind, step string) error {
	if s.steps == nil {
		s.steps = make(map[int64]map[entity.RoleKind][]string)
	}
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

func (s *memStore) StepsByUser(_ context.Context, userID int64) (map[entity.RoleKind][]string, error) {
	if s.steps[userID] == nil {
		return map[entity.RoleKind][]string{}, nil
	}
	return s.steps[userID], nil
}

func testTracker() *Tracker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTracker(&memStore{}, log)
}

func TestRecordStep(t *testing.T) {
	tr := testTracker()

	percent, err := tr.RecordStep(context.Background(), 1, entity.RoleMember, "account_created")
	require.NoError(t, err)
	assert.Equal(t, 33, percent)

	percent, err = tr.RecordStep(context.Background(), 1, entity.RoleMember, "personal_profile")
	require.NoError(t, err)
	assert.Equal(t, 66, percent)

	// repeating a step changes nothing
	percent, err = tr.RecordStep(context.Background(), 1, entity.RoleMember, "personal_profile")
	require.NoError(t, err)
	assert.Equal(t, 66, percent)

	percent, err = tr.RecordStep(context.Background(), 1, entity.RoleMember, "medical_info")
	require.NoError(t, err)
	assert.Equal(t, 100, percent)
}

func TestRecordStepRejections(t *testing.T) {
	tr := testTracker()

	_, err := tr.RecordStep(context.Background(), 1, entity.RoleMember, "win_trophy")
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = tr.RecordStep(context.Background(), 1, entity.RoleKind("admin"), "account_created")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestProgressPerRole(t *testing.T) {
	tr := testTracker()
	ctx := context.Background()

	_, err := tr.RecordStep(ctx, 1, entity.RoleClubManager, "account_created")
	require.NoError(t, err)
	_, err = tr.RecordStep(ctx, 1, entity.RoleClubManager, "club_profile")
	require.NoError(t, err)
	_, err = tr.RecordStep(ctx, 1, entity.RoleMember, "account_created")
	require.NoError(t, err)

	summary, err := tr.Progress(ctx, 1, []entity.RoleKind{entity.RoleClubManager, entity.RoleMember})
	require.NoError(t, err)
	require.Len(t, summary.PerRole, 2)
	assert.Equal(t, 50, summary.PerRole[0].Percent)
	assert.Equal(t, 33, summary.PerRole[1].Percent)
	assert.Equal(t, 41, summary.OverallPercent)
}

func TestProgressWithoutRoleFilter(t *testing.T) {
	tr := testTracker()
	ctx := context.Background()

	_, err := tr.RecordStep(ctx, 7, entity.RoleParent, "account_created")
	require.NoError(t, err)

	summary, err := tr.Progress(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, summary.PerRole, 1)
	assert.Equal(t, entity.RoleParent, summary.PerRole[0].Role)
	assert.Equal(t, 25, summary.PerRole[0].Percent)

	empty, err := tr.Progress(ctx, 8, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.PerRole)
	assert.Equal(t, 0, empty.OverallPercent)
}
