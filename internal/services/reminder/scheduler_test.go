package reminder

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
)

type fixture struct {
	clock    *clocktest.Fake
	store    *localstore.Store
	recorder *notifytest.Recorder
	sched    *Scheduler
}

func newFixture(t *testing.T, start time.Time) *fixture {
	t.Helper()
	clk := clocktest.NewFake(start)
	store, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &notifytest.Recorder{}
	return &fixture{
		clock:    clk,
		store:    store,
		recorder: rec,
		sched:    New(store, clk, rec, nil, Config{Location: time.UTC}),
	}
}

func dueTask(id string) domain.Task {
	return domain.Task{ID: id, Title: "Essay", DueDate: "2024-01-01", DueTime: "09:00"}
}

func TestSchedule_FiresMinutesBeforeDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, f.sched.Schedule(ctx, dueTask("t1"), 30))

	f.clock.Advance(29 * time.Minute)
	assert.Empty(t, f.recorder.Sent())

	f.clock.Advance(time.Minute)
	sent := f.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "⏰ Reminder: Essay", sent[0].Title)
	assert.Equal(t, "Task is due soon!", sent[0].Body)
	assert.Equal(t, "task-reminder-t1", sent[0].Tag)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), sent[0].CreatedAt)

	r, err := f.sched.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderFired, r.State)
}

func TestSchedule_RejectsMissingDueOrPastTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 45, 0, 0, time.UTC))

	err := f.sched.Schedule(ctx, domain.Task{ID: "nodue", Title: "x"}, 30)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidSchedule))

	err = f.sched.Schedule(ctx, domain.Task{ID: "notime", Title: "x", DueDate: "2024-01-02"}, 30)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidSchedule))

	err = f.sched.Schedule(ctx, dueTask("past"), 30)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidSchedule))

	assert.Equal(t, 0, f.clock.Pending())
	active, err := f.sched.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCancelThenReschedule_FiresExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, f.sched.Schedule(ctx, dueTask("t1"), 30))
	require.NoError(t, f.sched.Cancel(ctx, "t1"))
	require.NoError(t, f.sched.Cancel(ctx, "t1"))
	require.NoError(t, f.sched.Reschedule(ctx, dueTask("t1"), 10))

	f.clock.Advance(2 * time.Hour)
	sent := f.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 50, 0, 0, time.UTC), sent[0].CreatedAt)
}

func TestSchedule_ReplacesExistingReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, f.sched.Schedule(ctx, dueTask("t1"), 30))
	require.NoError(t, f.sched.Schedule(ctx, dueTask("t1"), 15))

	f.clock.Advance(2 * time.Hour)
	require.Len(t, f.recorder.Sent(), 1)
}

func TestCancel_PreventsFiring(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, f.sched.Schedule(ctx, dueTask("t1"), 30))
	require.NoError(t, f.sched.Cancel(ctx, "t1"))
	require.NoError(t, f.sched.Cancel(ctx, "missing"))

	f.clock.Advance(2 * time.Hour)
	assert.Empty(t, f.recorder.Sent())

	r, err := f.sched.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderCancelled, r.State)
}

func TestFire_UsesSnapshotTakenAtSchedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	task := dueTask("t1")
	task.Description = "bring notes"
	require.NoError(t, f.sched.Schedule(ctx, task, 30))
	task.Title = "Renamed later"

	f.clock.Advance(time.Hour)
	require.Len(t, f.recorder.Sent(), 1)
	assert.Equal(t, "⏰ Reminder: Essay", f.recorder.Sent()[0].Title)
	assert.Equal(t, "bring notes", f.recorder.Sent()[0].Body)
}

func TestRecover_RearmsFutureAndExpiresPast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC))

	early := dueTask("early")
	early.DueTime = "08:00"
	require.NoError(t, f.sched.Schedule(ctx, early, 30))
	require.NoError(t, f.sched.Schedule(ctx, dueTask("late"), 30))
	f.sched.Stop(ctx)

	// Restart after the early reminder's fire time passed while the process was down.
	f.clock.Set(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	assert.Empty(t, f.recorder.Sent())

	restarted := New(f.store, f.clock, f.recorder, nil, Config{Location: time.UTC})
	rearmed, expired, err := restarted.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rearmed)
	assert.Equal(t, 1, expired)

	r, err := restarted.Get(ctx, "early")
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderExpired, r.State)

	f.clock.Advance(time.Hour)
	sent := f.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "task-reminder-late", sent[0].Tag)
}

func TestSnooze_RearmsFromNow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, f.sched.Schedule(ctx, dueTask("t1"), 30))
	f.clock.Advance(30 * time.Minute)
	require.Len(t, f.recorder.Sent(), 1)

	r, err := f.sched.Snooze(ctx, "t1", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 45, 0, 0, time.UTC), r.FireAt)

	f.clock.Advance(15 * time.Minute)
	assert.Len(t, f.recorder.Sent(), 2)

	_, err = f.sched.Snooze(ctx, "unknown", time.Minute)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)
}

func TestClearAllAndPrune(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, f.sched.Schedule(ctx, dueTask("a"), 30))
	require.NoError(t, f.sched.Schedule(ctx, dueTask("b"), 30))
	require.NoError(t, f.sched.Cancel(ctx, "b"))

	f.clock.Advance(8 * 24 * time.Hour)
	removed, err := f.sched.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	require.NoError(t, f.sched.Schedule(ctx, domain.Task{ID: "c", Title: "c", DueDate: "2024-02-01", DueTime: "10:00"}, 0))
	require.NoError(t, f.sched.ClearAll(ctx))
	active, err := f.sched.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Equal(t, 0, f.clock.Pending())
}
