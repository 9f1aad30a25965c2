package task

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
	"github.com/fastygo/auraplan/internal/services/reminder"
	"github.com/fastygo/auraplan/repository/local"
)

type fixedIdentity string

func (f fixedIdentity) CurrentIdentity(context.Context) (*domain.Identity, error) {
	if f == "" {
		return nil, nil
	}
	return &domain.Identity{ID: string(f)}, nil
}

type fixture struct {
	clock    *clocktest.Fake
	sched    *reminder.Scheduler
	recorder *notifytest.Recorder
	uc       *UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clocktest.NewFake(time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC))
	store, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &notifytest.Recorder{}
	sched := reminder.New(store, clk, rec, nil, reminder.Config{Location: time.UTC})
	return &fixture{
		clock:    clk,
		sched:    sched,
		recorder: rec,
		uc:       New(local.NewTasks(store, nil), sched, fixedIdentity("u1"), clk, nil),
	}
}

func minutes(n int) *int { return &n }

func TestCreateTask_AppliesDefaultsAndOwner(t *testing.T) {
	f := newFixture(t)

	created, err := f.uc.CreateTask(context.Background(), domain.Task{Title: "Study"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, domain.DefaultCategory, created.Category)
	assert.Equal(t, "u1", created.OwnerID)
	assert.False(t, created.Synced)

	got, err := f.uc.GetTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateTask_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CreateTask(context.Background(), domain.Task{Title: ""})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = f.uc.CreateTask(context.Background(), domain.Task{Title: "x", DueDate: "10/01/2024"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	tasks, err := f.uc.ListTasks(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTitlesAreTrimmedAndMustNotBeBlank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTask(ctx, domain.Task{Title: "   "})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	created, err := f.uc.CreateTask(ctx, domain.Task{Title: "  Study  "})
	require.NoError(t, err)
	assert.Equal(t, "Study", created.Title)

	blank := "  "
	_, err = f.uc.UpdateTask(ctx, created.ID, domain.TaskPatch{Title: &blank})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	renamed := " Revise "
	updated, err := f.uc.UpdateTask(ctx, created.ID, domain.TaskPatch{Title: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Revise", updated.Title)

	tasks, err := f.uc.ListTasks(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Revise", tasks[0].Title)
}

func TestCreateTask_SchedulesReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateTask(ctx, domain.Task{
		Title:           "Study",
		DueDate:         "2024-01-10",
		DueTime:         "09:00",
		ReminderMinutes: minutes(30),
	})
	require.NoError(t, err)

	r, err := f.sched.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC), r.FireAt)

	f.clock.Set(time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC))
	sent := f.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "⏰ Reminder: Study", sent[0].Title)
}

func TestCreateTask_ReminderWithoutDueDateIsNotArmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateTask(ctx, domain.Task{Title: "Someday", ReminderMinutes: minutes(30)})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	active, err := f.sched.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpdateTask_CompletionPairsTimestampAndCancelsReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateTask(ctx, domain.Task{
		Title:           "Essay",
		DueDate:         "2024-01-10",
		DueTime:         "09:00",
		ReminderMinutes: minutes(60),
	})
	require.NoError(t, err)

	done, err := f.uc.SetCompleted(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)

	active, err := f.sched.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	undone, err := f.uc.SetCompleted(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)

	active, err = f.sched.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUpdateTask_RescheduleFiresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateTask(ctx, domain.Task{
		Title:           "Exam",
		DueDate:         "2024-01-10",
		DueTime:         "09:00",
		ReminderMinutes: minutes(30),
	})
	require.NoError(t, err)

	later := "10:00"
	_, err = f.uc.UpdateTask(ctx, created.ID, domain.TaskPatch{DueTime: &later})
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	assert.Len(t, f.recorder.Sent(), 1)
}

func TestUpdateTask_UnknownID(t *testing.T) {
	f := newFixture(t)
	title := "x"
	_, err := f.uc.UpdateTask(context.Background(), "missing", domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDeleteTask_IsIdempotentAndCancelsReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateTask(ctx, domain.Task{
		Title:           "Read",
		DueDate:         "2024-01-10",
		DueTime:         "09:00",
		ReminderMinutes: minutes(15),
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteTask(ctx, created.ID))
	require.NoError(t, f.uc.DeleteTask(ctx, created.ID))

	r, err := f.sched.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderCancelled, r.State)

	f.clock.Set(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, f.recorder.Sent())
}

func TestScheduleReminder_SurfacesInvalidSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateTask(ctx, domain.Task{Title: "No due"})
	require.NoError(t, err)

	_, err = f.uc.ScheduleReminder(ctx, created.ID, 30)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidSchedule))

	created, err = f.uc.CreateTask(ctx, domain.Task{Title: "Due", DueDate: "2024-01-12", DueTime: "18:00"})
	require.NoError(t, err)
	updated, err := f.uc.ScheduleReminder(ctx, created.ID, 45)
	require.NoError(t, err)
	require.NotNil(t, updated.ReminderMinutes)
	assert.Equal(t, 45, *updated.ReminderMinutes)

	require.NoError(t, f.uc.CancelReminder(ctx, created.ID))
	got, err := f.uc.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReminderMinutes)
}

func TestListTasks_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTask(ctx, domain.Task{Title: "Math homework", Priority: domain.PriorityHigh, DueDate: "2024-01-08"})
	require.NoError(t, err)
	_, err = f.uc.CreateTask(ctx, domain.Task{Title: "Gym", Category: "health", DueDate: "2024-01-12"})
	require.NoError(t, err)
	done, err := f.uc.CreateTask(ctx, domain.Task{Title: "Laundry", Category: "home"})
	require.NoError(t, err)
	_, err = f.uc.SetCompleted(ctx, done.ID, true)
	require.NoError(t, err)

	byPriority, err := f.uc.ListTasks(ctx, Filter{Priority: domain.PriorityHigh})
	require.NoError(t, err)
	require.Len(t, byPriority, 1)
	assert.Equal(t, "Math homework", byPriority[0].Title)

	overdue, err := f.uc.ListTasks(ctx, Filter{Status: "overdue"})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Math homework", overdue[0].Title)

	completed, err := f.uc.ListTasks(ctx, Filter{Status: "completed"})
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	ranged, err := f.uc.ListTasks(ctx, Filter{From: "2024-01-10", To: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "Gym", ranged[0].Title)

	searched, err := f.uc.ListTasks(ctx, Filter{Query: "HOMEWORK"})
	require.NoError(t, err)
	assert.Len(t, searched, 1)

	_, err = f.uc.ListTasks(ctx, Filter{Status: "bogus"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
