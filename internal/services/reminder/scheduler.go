// Package reminder arms per-task reminder timers and keeps them in a durable table
// so they survive restarts.
package reminder

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/internal/infrastructure/notify"
)

// Store persists reminder records keyed by task id.
type Store interface {
	PutReminder(r domain.Reminder) error
	GetReminder(taskID string) (*domain.Reminder, error)
	ListReminders() ([]domain.Reminder, error)
	DeleteReminder(taskID string) error
	PruneReminders(olderThan time.Time) (int, error)
}

// Config tunes the scheduler.
type Config struct {
	Location      *time.Location
	Retention     time.Duration
	PruneSchedule string
}

type armed struct {
	gen   uint64
	timer clock.Timer
}

// Scheduler owns every reminder timer. Each arm bumps a generation counter and
// a timer only fires when its generation is still current, so a cancelled or
// replaced reminder never fires.
type Scheduler struct {
	store    Store
	clock    clock.Clock
	notifier notify.Notifier
	cfg      Config
	logger   *zap.Logger
	cron     *cron.Cron

	mu     sync.Mutex
	gen    uint64
	timers map[string]armed
}

func New(store Store, clk clock.Clock, notifier notify.Notifier, logger *zap.Logger, cfg Config) *Scheduler {
	if clk == nil {
		clk = clock.New(cfg.Location)
	}
	if notifier == nil {
		notifier = notify.NewLog(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = "@every 1h"
	}
	return &Scheduler{
		store:    store,
		clock:    clk,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Named("reminders"),
		timers:   make(map[string]armed),
	}
}

// Start recovers persisted reminders and launches periodic pruning.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, _, err := s.Recover(ctx); err != nil {
		return err
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.PruneSchedule, func() {
		if _, err := s.Prune(context.Background()); err != nil {
			s.logger.Error("reminder prune failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
	return nil
}

// Stop disarms in-memory timers. Pending records stay pending for the next Recover.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.logger.Info("reminder scheduler stopped")
}

// Schedule arms a reminder minutesBefore the task's due instant, replacing any
// existing one. It fails with an invalid-schedule error when the task has no
// due date and time or the fire time is not in the future.
func (s *Scheduler) Schedule(ctx context.Context, task domain.Task, minutesBefore int) error {
	if task.ID == "" {
		return domain.InvalidScheduleError("task has no id")
	}
	if minutesBefore < 0 {
		return s.reject(task.ID, "reminder offset must not be negative")
	}
	due, ok := task.DueAt(s.cfg.Location)
	if !ok {
		return s.reject(task.ID, "task has no due date and time")
	}
	now := s.clock.Now()
	fireAt := due.Add(-time.Duration(minutesBefore) * time.Minute)
	if !fireAt.After(now) {
		return s.reject(task.ID, "reminder time is in the past")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked(task.ID)
	r := domain.Reminder{
		TaskID:    task.ID,
		FireAt:    fireAt,
		Minutes:   minutesBefore,
		Task:      task,
		State:     domain.ReminderPending,
		UpdatedAt: now,
	}
	if err := s.store.PutReminder(r); err != nil {
		return err
	}
	s.armLocked(task.ID, fireAt.Sub(now))
	s.logger.Debug("reminder scheduled", zap.String("task_id", task.ID), zap.Time("fire_at", fireAt))
	return nil
}

// Cancel disarms the task's reminder. Cancelling a missing reminder is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked(taskID)

	r, err := s.store.GetReminder(taskID)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			return nil
		}
		return err
	}
	if r.State != domain.ReminderPending {
		return nil
	}
	r.State = domain.ReminderCancelled
	r.UpdatedAt = s.clock.Now()
	return s.store.PutReminder(*r)
}

// Reschedule cancels then schedules. When scheduling fails the reminder stays cancelled.
func (s *Scheduler) Reschedule(ctx context.Context, task domain.Task, minutesBefore int) error {
	if err := s.Cancel(ctx, task.ID); err != nil {
		return err
	}
	return s.Schedule(ctx, task, minutesBefore)
}

// Snooze re-arms an existing reminder d from now using the stored task snapshot.
func (s *Scheduler) Snooze(ctx context.Context, taskID string, d time.Duration) (*domain.Reminder, error) {
	if d <= 0 {
		d = domain.DefaultSnooze
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.store.GetReminder(taskID)
	if err != nil {
		return nil, err
	}
	s.disarmLocked(taskID)

	now := s.clock.Now()
	r.FireAt = now.Add(d)
	r.Minutes = 0
	r.State = domain.ReminderPending
	r.UpdatedAt = now
	if err := s.store.PutReminder(*r); err != nil {
		return nil, err
	}
	s.armLocked(taskID, d)
	return r, nil
}

// Recover re-arms pending reminders whose fire time is still ahead and marks
// the rest expired. Missed reminders are never fired retroactively.
func (s *Scheduler) Recover(ctx context.Context) (rearmed, expired int, err error) {
	records, err := s.store.ListReminders()
	if err != nil {
		return 0, 0, err
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.State != domain.ReminderPending {
			continue
		}
		if r.FireAt.After(now) {
			s.disarmLocked(r.TaskID)
			s.armLocked(r.TaskID, r.FireAt.Sub(now))
			rearmed++
			continue
		}
		r.State = domain.ReminderExpired
		r.UpdatedAt = now
		if err := s.store.PutReminder(r); err != nil {
			return rearmed, expired, err
		}
		expired++
	}
	s.logger.Info("reminders recovered", zap.Int("rearmed", rearmed), zap.Int("expired", expired))
	return rearmed, expired, nil
}

// Active returns pending reminders ordered by fire time.
func (s *Scheduler) Active(ctx context.Context) ([]domain.Reminder, error) {
	records, err := s.store.ListReminders()
	if err != nil {
		return nil, err
	}
	active := make([]domain.Reminder, 0, len(records))
	for _, r := range records {
		if r.State == domain.ReminderPending {
			active = append(active, r)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].FireAt.Before(active[j].FireAt) })
	return active, nil
}

// Get returns the reminder record for a task.
func (s *Scheduler) Get(ctx context.Context, taskID string) (*domain.Reminder, error) {
	return s.store.GetReminder(taskID)
}

// ClearAll disarms and deletes every reminder.
func (s *Scheduler) ClearAll(ctx context.Context) error {
	records, err := s.store.ListReminders()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.disarmLocked(r.TaskID)
		if err := s.store.DeleteReminder(r.TaskID); err != nil {
			return err
		}
	}
	return nil
}

// Prune deletes terminal reminders older than the retention window.
func (s *Scheduler) Prune(ctx context.Context) (int, error) {
	removed, err := s.store.PruneReminders(s.clock.Now().Add(-s.cfg.Retention))
	if err == nil && removed > 0 {
		s.logger.Debug("reminders pruned", zap.Int("removed", removed))
	}
	return removed, err
}

func (s *Scheduler) reject(taskID, reason string) error {
	err := domain.InvalidScheduleError(reason)
	s.logger.Warn("reminder not scheduled", zap.String("task_id", taskID), zap.Error(err))
	return err
}

func (s *Scheduler) armLocked(taskID string, d time.Duration) {
	s.gen++
	gen := s.gen
	s.timers[taskID] = armed{gen: gen, timer: s.clock.AfterFunc(d, func() { s.fire(taskID, gen) })}
}

func (s *Scheduler) disarmLocked(taskID string) {
	if a, ok := s.timers[taskID]; ok {
		a.timer.Stop()
		delete(s.timers, taskID)
	}
}

func (s *Scheduler) fire(taskID string, gen uint64) {
	s.mu.Lock()
	current, ok := s.timers[taskID]
	if !ok || current.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, taskID)

	r, err := s.store.GetReminder(taskID)
	if err != nil || r.State != domain.ReminderPending {
		s.mu.Unlock()
		if err != nil {
			s.logger.Error("reminder record unavailable", zap.String("task_id", taskID), zap.Error(err))
		}
		return
	}
	now := s.clock.Now()
	r.State = domain.ReminderFired
	r.UpdatedAt = now
	if err := s.store.PutReminder(*r); err != nil {
		s.logger.Error("failed to mark reminder fired", zap.String("task_id", taskID), zap.Error(err))
	}
	s.mu.Unlock()

	if err := s.notifier.Notify(context.Background(), Notification(r.Task, now)); err != nil {
		s.logger.Warn("reminder delivery failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

// Notification builds the message shown when a task reminder fires.
func Notification(task domain.Task, now time.Time) domain.Notification {
	body := task.Description
	if body == "" {
		body = "Task is due soon!"
	}
	return domain.Notification{
		Title:              "⏰ Reminder: " + task.Title,
		Body:               body,
		Tag:                "task-reminder-" + task.ID,
		Link:               "/tasks/" + task.ID,
		RequireInteraction: true,
		CreatedAt:          now,
	}
}
