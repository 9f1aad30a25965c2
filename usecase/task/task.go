package task

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/repository/local"
	"github.com/fastygo/auraplan/usecase"
)

// Filter narrows List. Empty fields are ignored.
type Filter struct {
	Status   string // "completed", "pending" or "overdue"
	Priority domain.Priority
	Category string
	From     string
	To       string
	Query    string
}

type UseCase struct {
	tasks     *local.Tasks
	reminders usecase.ReminderPlanner
	identity  usecase.IdentityProvider
	clock     clock.Clock
	logger    *zap.Logger
}

func New(tasks *local.Tasks, reminders usecase.ReminderPlanner, identity usecase.IdentityProvider, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	return &UseCase{
		tasks:     tasks,
		reminders: reminders,
		identity:  identity,
		clock:     clk,
		logger:    logger.Named("tasks"),
	}
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return uc.tasks.Get(ctx, id)
}

func (uc *UseCase) ListTasks(ctx context.Context, filter Filter) ([]domain.Task, error) {
	var (
		items []domain.Task
		err   error
	)
	switch filter.Status {
	case "completed":
		items, err = uc.tasks.Completed(ctx)
	case "pending":
		items, err = uc.tasks.Pending(ctx)
	case "overdue":
		items, err = uc.tasks.Overdue(ctx, uc.clock.Now())
	case "":
		items, err = uc.tasks.List(ctx)
	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown status filter "+filter.Status)
	}
	if err != nil {
		return nil, err
	}

	out := items[:0:0]
	for _, t := range items {
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.From != "" && (t.DueDate == "" || t.DueDate < filter.From) {
			continue
		}
		if filter.To != "" && (t.DueDate == "" || t.DueDate > filter.To) {
			continue
		}
		if filter.Query != "" && !t.Matches(filter.Query) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTask validates and persists a task, then arms its reminder when one is
// requested. A reminder that cannot be scheduled does not fail the create.
func (uc *UseCase) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	task.ApplyDefaults()
	if task.OwnerID == "" {
		task.OwnerID = usecase.OwnerID(ctx, uc.identity)
	}
	task.Synced = false
	task.SetCompleted(task.Completed, uc.clock.Now())
	if err := usecase.Validate(&task); err != nil {
		return domain.Task{}, err
	}

	created, err := uc.tasks.Add(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	if created.ReminderMinutes != nil && !created.Completed {
		uc.arm(ctx, created, false)
	}
	return created, nil
}

// UpdateTask applies a patch. Reminders follow the new schedule: completing a
// task or clearing its reminder cancels it, other schedule changes re-arm it.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	patch.Normalize()
	if err := usecase.Validate(&patch); err != nil {
		return domain.Task{}, err
	}
	updated, err := uc.tasks.Update(ctx, id, func(t *domain.Task) error {
		patch.Apply(t, uc.clock.Now())
		return usecase.Validate(t)
	})
	if err != nil {
		return domain.Task{}, err
	}
	if patch.TouchesSchedule() {
		uc.arm(ctx, updated, true)
	}
	return updated, nil
}

// SetCompleted is a shortcut for a completion-only patch.
func (uc *UseCase) SetCompleted(ctx context.Context, id string, done bool) (domain.Task, error) {
	return uc.UpdateTask(ctx, id, domain.TaskPatch{Completed: &done})
}

// DeleteTask removes the task and its reminder. Deleting twice is not an error.
func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	if uc.reminders != nil {
		if err := uc.reminders.Cancel(ctx, id); err != nil {
			uc.logger.Warn("failed to cancel reminder", zap.String("task_id", id), zap.Error(err))
		}
	}
	return nil
}

// ScheduleReminder arms the task's reminder explicitly, surfacing schedule errors.
func (uc *UseCase) ScheduleReminder(ctx context.Context, id string, minutesBefore int) (domain.Task, error) {
	if uc.reminders == nil {
		return domain.Task{}, domain.InvalidScheduleError("reminders are disabled")
	}
	current, err := uc.tasks.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := uc.reminders.Reschedule(ctx, current, minutesBefore); err != nil {
		return domain.Task{}, err
	}
	return uc.tasks.Update(ctx, id, func(t *domain.Task) error {
		t.ReminderMinutes = &minutesBefore
		return nil
	})
}

// CancelReminder disarms and forgets the task's reminder.
func (uc *UseCase) CancelReminder(ctx context.Context, id string) error {
	if _, err := uc.tasks.Update(ctx, id, func(t *domain.Task) error {
		t.ReminderMinutes = nil
		return nil
	}); err != nil {
		return err
	}
	if uc.reminders == nil {
		return nil
	}
	return uc.reminders.Cancel(ctx, id)
}

func (uc *UseCase) arm(ctx context.Context, t domain.Task, replace bool) {
	if uc.reminders == nil {
		return
	}
	if t.Completed || t.ReminderMinutes == nil {
		if replace {
			if err := uc.reminders.Cancel(ctx, t.ID); err != nil {
				uc.logger.Warn("failed to cancel reminder", zap.String("task_id", t.ID), zap.Error(err))
			}
		}
		return
	}
	schedule := uc.reminders.Schedule
	if replace {
		schedule = uc.reminders.Reschedule
	}
	if err := schedule(ctx, t, *t.ReminderMinutes); err != nil {
		level := zap.ErrorLevel
		if domain.IsDomainError(err, domain.ErrCodeInvalidSchedule) || errors.Is(err, context.Canceled) {
			level = zap.DebugLevel
		}
		if ce := uc.logger.Check(level, "reminder not scheduled"); ce != nil {
			ce.Write(zap.String("task_id", t.ID), zap.Error(err))
		}
	}
}
