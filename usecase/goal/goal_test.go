package goal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock/clocktest"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
	"github.com/fastygo/auraplan/internal/infrastructure/notify/notifytest"
	"github.com/fastygo/auraplan/repository/local"
)

func newUseCase(t *testing.T) (*UseCase, *notifytest.Recorder, *clocktest.Fake) {
	t.Helper()
	clk := clocktest.NewFake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	store, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	rec := &notifytest.Recorder{}
	return New(local.NewGoals(store, nil), rec, nil, clk, nil), rec, clk
}

func TestCreateGoal_Validation(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateGoal(ctx, domain.Goal{Title: "Run", TargetValue: 0})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.CreateGoal(ctx, domain.Goal{Title: "", TargetValue: 10})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	created, err := uc.CreateGoal(ctx, domain.Goal{
		Title:       "Run 100km",
		TargetValue: 100,
		Unit:        "km",
		Milestones:  []domain.Milestone{{Title: "First 10"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	require.Len(t, created.Milestones, 1)
	assert.NotEmpty(t, created.Milestones[0].ID)
}

func TestGoalTitlesMustNotBeBlank(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateGoal(ctx, domain.Goal{Title: "  ", TargetValue: 10})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.CreateGoal(ctx, domain.Goal{Title: "Run", TargetValue: 10, Milestones: []domain.Milestone{{Title: " "}}})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	created, err := uc.CreateGoal(ctx, domain.Goal{Title: " Run ", TargetValue: 10})
	require.NoError(t, err)
	assert.Equal(t, "Run", created.Title)

	blank := "\t "
	_, err = uc.UpdateGoal(ctx, created.ID, domain.GoalPatch{Title: &blank})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	goals, err := uc.ListGoals(ctx, "")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Run", goals[0].Title)
}

func TestUpdateProgress_CompletesAtTarget(t *testing.T) {
	uc, rec, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateGoal(ctx, domain.Goal{Title: "Read", TargetValue: 100, Unit: "pages"})
	require.NoError(t, err)
	rec.Reset()

	partial, err := uc.UpdateProgress(ctx, created.ID, 40, "")
	require.NoError(t, err)
	assert.False(t, partial.Completed)
	assert.InDelta(t, 40, partial.Progress(), 0.001)
	assert.Empty(t, partial.ProgressNotes)

	done, err := uc.UpdateProgress(ctx, created.ID, 100, "finished the book")
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.NotNil(t, done.CompletedAt)
	assert.InDelta(t, 100, done.Progress(), 0.001)
	require.Len(t, done.ProgressNotes, 1)
	assert.Equal(t, "finished the book", done.ProgressNotes[0].Notes)

	sent := rec.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Progress Updated", sent[0].Title)
	assert.Equal(t, "Progress updated to 40/100 pages", sent[0].Body)
	assert.Equal(t, "Goal Completed! 🎉", sent[1].Title)

	_, err = uc.UpdateProgress(ctx, created.ID, -1, "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestToggleCompletion(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateGoal(ctx, domain.Goal{Title: "Save", TargetValue: 500, CurrentValue: 100})
	require.NoError(t, err)

	done, err := uc.ToggleCompletion(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, 500, done.CurrentValue)

	reopened, err := uc.ToggleCompletion(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)
}

func TestToggleMilestone(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateGoal(ctx, domain.Goal{
		Title:       "Learn Go",
		TargetValue: 3,
		Milestones:  []domain.Milestone{{ID: "m1", Title: "Tour"}},
	})
	require.NoError(t, err)

	updated, err := uc.ToggleMilestone(ctx, created.ID, "m1")
	require.NoError(t, err)
	assert.True(t, updated.Milestones[0].Completed)

	_, err = uc.ToggleMilestone(ctx, created.ID, "nope")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestUpdateGoal_LoweringTargetCompletes(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateGoal(ctx, domain.Goal{Title: "Swim", TargetValue: 20, CurrentValue: 10})
	require.NoError(t, err)

	target := 10
	updated, err := uc.UpdateGoal(ctx, created.ID, domain.GoalPatch{TargetValue: &target})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	bad := -5
	_, err = uc.UpdateGoal(ctx, created.ID, domain.GoalPatch{TargetValue: &bad})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestDeleteGoal_Idempotent(t *testing.T) {
	uc, rec, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateGoal(ctx, domain.Goal{Title: "Temp", TargetValue: 1})
	require.NoError(t, err)
	rec.Reset()

	require.NoError(t, uc.DeleteGoal(ctx, created.ID))
	require.NoError(t, uc.DeleteGoal(ctx, created.ID))
	assert.Len(t, rec.Sent(), 1)

	_, err = uc.GetGoal(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestListGoals_Overdue(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateGoal(ctx, domain.Goal{Title: "Late", TargetValue: 1, TargetDate: "2024-02-01"})
	require.NoError(t, err)
	_, err = uc.CreateGoal(ctx, domain.Goal{Title: "Future", TargetValue: 1, TargetDate: "2024-12-01"})
	require.NoError(t, err)

	overdue, err := uc.ListGoals(ctx, "overdue")
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Late", overdue[0].Title)

	active, err := uc.ListGoals(ctx, "active")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
