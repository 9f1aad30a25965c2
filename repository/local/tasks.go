package local

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
)

// Tasks is the task collection plus its query helpers. Queries scan the full collection.
type Tasks struct {
	*Repository[domain.Task, *domain.Task]
}

func NewTasks(store *localstore.Store, logger *zap.Logger) *Tasks {
	return &Tasks{newRepository[domain.Task, *domain.Task](store, domain.CollectionTasks, domain.ErrTaskNotFound, logger)}
}

// ByDateRange returns tasks whose due date falls within [from, to], both "YYYY-MM-DD".
func (r *Tasks) ByDateRange(ctx context.Context, from, to string) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool {
		if t.DueDate == "" {
			return false
		}
		return (from == "" || t.DueDate >= from) && (to == "" || t.DueDate <= to)
	})
}

func (r *Tasks) ByPriority(ctx context.Context, p domain.Priority) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool { return t.Priority == p })
}

func (r *Tasks) ByCategory(ctx context.Context, category string) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool { return t.Category == category })
}

func (r *Tasks) Completed(ctx context.Context) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool { return t.Completed })
}

func (r *Tasks) Pending(ctx context.Context) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool { return !t.Completed })
}

// Overdue returns incomplete tasks whose deadline is before now.
func (r *Tasks) Overdue(ctx context.Context, now time.Time) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool { return t.IsOverdue(now) })
}

// Search matches title, description and category case-insensitively.
func (r *Tasks) Search(ctx context.Context, query string) ([]domain.Task, error) {
	return r.Filter(ctx, func(t *domain.Task) bool { return t.Matches(query) })
}

// DueWithin returns incomplete tasks with a deadline in (now, now+window], soonest first.
func (r *Tasks) DueWithin(ctx context.Context, now time.Time, window time.Duration) ([]domain.Task, error) {
	limit := now.Add(window)
	tasks, err := r.Filter(ctx, func(t *domain.Task) bool {
		if t.Completed {
			return false
		}
		deadline, ok := t.Deadline(now.Location())
		return ok && deadline.After(now) && !deadline.After(limit)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, _ := tasks[i].Deadline(now.Location())
		b, _ := tasks[j].Deadline(now.Location())
		return a.Before(b)
	})
	return tasks, nil
}
