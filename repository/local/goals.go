package local

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
)

// Goals is the goal collection plus its query helpers.
type Goals struct {
	*Repository[domain.Goal, *domain.Goal]
}

func NewGoals(store *localstore.Store, logger *zap.Logger) *Goals {
	return &Goals{newRepository[domain.Goal, *domain.Goal](store, domain.CollectionGoals, domain.ErrGoalNotFound, logger)}
}

func (r *Goals) Active(ctx context.Context) ([]domain.Goal, error) {
	return r.Filter(ctx, func(g *domain.Goal) bool { return !g.Completed })
}

func (r *Goals) Completed(ctx context.Context) ([]domain.Goal, error) {
	return r.Filter(ctx, func(g *domain.Goal) bool { return g.Completed })
}

func (r *Goals) Overdue(ctx context.Context, now time.Time) ([]domain.Goal, error) {
	return r.Filter(ctx, func(g *domain.Goal) bool { return g.IsOverdue(now) })
}

// Overview counts goals by state.
func (r *Goals) Overview(ctx context.Context, now time.Time) (domain.GoalOverview, error) {
	goals, err := r.List(ctx)
	if err != nil {
		return domain.GoalOverview{}, err
	}
	var o domain.GoalOverview
	for i := range goals {
		o.Total++
		switch {
		case goals[i].Completed:
			o.Completed++
		case goals[i].IsOverdue(now):
			o.Overdue++
			o.Active++
		default:
			o.Active++
		}
	}
	return o, nil
}
