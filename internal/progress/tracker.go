package progress

import (
	"context"
	"fmt"
	"log/slog"
	"clubq/entity"
	"clubq/lib/sl"
)

// Store persists completed onboarding steps. AddStep must be idempotent:
// recording the same step twice has no additional effect.
type Store interface {
	AddStep(ctx context.Context, userID int64, role entity.RoleKind, step string) error
	StepsByUser(ctx context.Context, userID int64) (map[entity.RoleKind][]string, error)
}

// Checklists are the fixed, role-specific step sets completion is measured
// against. Steps outside the checklist are rejected rather than silently
// diluting the percentage.
var checklists = map[entity.RoleKind][]string{
	entity.RoleClubManager: {"account_created", "club_profile", "personal_profile", "first_invite_sent"},
	entity.RoleMember:      {"account_created", "personal_profile", "medical_info"},
	entity.RoleParent:      {"account_created", "personal_profile", "children_added", "medical_info"},
	entity.RoleClubCoach:   {"account_created", "personal_profile", "certifications"},
}

// Tracker records onboarding/profile completion per (user, role) and
// computes percentages for progress displays. Advisory state only: it is
// written outside the onboarding transaction and its failure never rolls
// onboarding back.
type Tracker struct {
	store Store
	log   *slog.Logger
}

func NewTracker(store Store, log *slog.Logger) *Tracker {
	return &Tracker{
		store: store,
		log:   log.With(sl.Module("progress")),
	}
}

// RecordStep idempotently marks a checklist step complete and returns the
// role's updated percentage.
func (t *Tracker) RecordStep(ctx context.Context, userID int64, role entity.RoleKind, step string) (int, error) {
	expected, ok := checklists[role]
	if !ok {
		return 0, fmt.Errorf("no checklist for role %q: %w", role, entity.ErrValidation)
	}
	if !contains(expected, step) {
		return 0, fmt.Errorf("unknown step %q for role %s: %w", step, role, entity.ErrValidation)
	}
	if err := t.store.AddStep(ctx, userID, role, step); err != nil {
		return 0, fmt.Errorf("record step: %w", err)
	}
	completed, err := t.store.StepsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read progress: %w", err)
	}
	return percent(expected, completed[role]), nil
}

// Progress reports completion for the given roles; when none are passed it
// covers every role with recorded steps.
func (t *Tracker) Progress(ctx context.Context, userID int64, roles []entity.RoleKind) (*entity.ProgressSummary, error) {
	completed, err := t.store.StepsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	if len(roles) == 0 {
		for role := range completed {
			roles = append(roles, role)
		}
	}

	summary := &entity.ProgressSummary{}
	total := 0
	for _, role := range roles {
		expected, ok := checklists[role]
		if !ok {
			continue
		}
		p := entity.RoleProgress{
			Role:           role,
			CompletedSteps: known(expected, completed[role]),
			ExpectedSteps:  expected,
		}
		p.Percent = percent(expected, p.CompletedSteps)
		total += p.Percent
		summary.PerRole = append(summary.PerRole, p)
	}
	if len(summary.PerRole) > 0 {
		summary.OverallPercent = total / len(summary.PerRole)
	}
	return summary, nil
}

func contains(steps []string, step string) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

// known filters recorded steps down to the checklist, keeping checklist
// order stable for display.
func known(expected, recorded []string) []string {
	var result []string
	for _, step := range expected {
		if contains(recorded, step) {
			result = append(result, step)
		}
	}
	return result
}

func percent(expected, completed []string) int {
	if len(expected) == 0 {
		return 0
	}
	return len(completed) * 100 / len(expected)
}
