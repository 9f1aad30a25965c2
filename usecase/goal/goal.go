package goal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/repository/local"
	"github.com/fastygo/auraplan/usecase"
)

var errMilestoneNotFound = domain.NewError(domain.ErrCodeNotFound, "milestone not found")

type UseCase struct {
	goals    *local.Goals
	notifier usecase.Notifier
	identity usecase.IdentityProvider
	clock    clock.Clock
	logger   *zap.Logger
}

func New(goals *local.Goals, notifier usecase.Notifier, identity usecase.IdentityProvider, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	return &UseCase{
		goals:    goals,
		notifier: notifier,
		identity: identity,
		clock:    clk,
		logger:   logger.Named("goals"),
	}
}

func (uc *UseCase) GetGoal(ctx context.Context, id string) (domain.Goal, error) {
	return uc.goals.Get(ctx, id)
}

// ListGoals supports the "active", "completed" and "overdue" status filters.
func (uc *UseCase) ListGoals(ctx context.Context, status string) ([]domain.Goal, error) {
	switch status {
	case "":
		return uc.goals.List(ctx)
	case "active":
		return uc.goals.Active(ctx)
	case "completed":
		return uc.goals.Completed(ctx)
	case "overdue":
		return uc.goals.Overdue(ctx, uc.clock.Now())
	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown status filter "+status)
	}
}

func (uc *UseCase) CreateGoal(ctx context.Context, goal domain.Goal) (domain.Goal, error) {
	if goal.Priority == "" {
		goal.Priority = domain.PriorityMedium
	}
	if goal.OwnerID == "" {
		goal.OwnerID = usecase.OwnerID(ctx, uc.identity)
	}
	goal.Synced = false
	goal.Normalize()
	assignMilestoneIDs(goal.Milestones)
	if err := usecase.Validate(&goal); err != nil {
		return domain.Goal{}, err
	}
	if err := goal.SetProgress(goal.CurrentValue, "", uc.clock.Now()); err != nil {
		return domain.Goal{}, err
	}

	created, err := uc.goals.Add(ctx, goal)
	if err != nil {
		return domain.Goal{}, err
	}
	uc.notify(ctx, "Goal Created", fmt.Sprintf("%q has been added to your goals", created.Title), "goal-save")
	return created, nil
}

func (uc *UseCase) UpdateGoal(ctx context.Context, id string, patch domain.GoalPatch) (domain.Goal, error) {
	patch.Normalize()
	if err := usecase.Validate(&patch); err != nil {
		return domain.Goal{}, err
	}
	updated, err := uc.goals.Update(ctx, id, func(g *domain.Goal) error {
		patch.Apply(g, uc.clock.Now())
		g.Normalize()
		assignMilestoneIDs(g.Milestones)
		return usecase.Validate(g)
	})
	if err != nil {
		return domain.Goal{}, err
	}
	uc.notify(ctx, "Goal Updated", fmt.Sprintf("%q has been updated", updated.Title), "goal-save")
	return updated, nil
}

// DeleteGoal is idempotent; the notification is only sent for an existing goal.
func (uc *UseCase) DeleteGoal(ctx context.Context, id string) error {
	existing, getErr := uc.goals.Get(ctx, id)
	if err := uc.goals.Delete(ctx, id); err != nil {
		return err
	}
	if getErr == nil {
		uc.notify(ctx, "Goal Deleted", fmt.Sprintf("%q has been removed", existing.Title), "goal-deleted")
	}
	return nil
}

// UpdateProgress sets the current value, completing the goal once it reaches
// its target. Notes, when given, are appended to the progress history.
func (uc *UseCase) UpdateProgress(ctx context.Context, id string, value int, notes string) (domain.Goal, error) {
	notes = strings.TrimSpace(notes)
	updated, err := uc.goals.Update(ctx, id, func(g *domain.Goal) error {
		return g.SetProgress(value, notes, uc.clock.Now())
	})
	if err != nil {
		return domain.Goal{}, err
	}
	if updated.Completed {
		uc.notify(ctx, "Goal Completed! 🎉", fmt.Sprintf("Congratulations on completing %q!", updated.Title), "goal-progress")
	} else {
		body := fmt.Sprintf("Progress updated to %d/%d", updated.CurrentValue, updated.TargetValue)
		if updated.Unit != "" {
			body += " " + updated.Unit
		}
		uc.notify(ctx, "Progress Updated", body, "goal-progress")
	}
	return updated, nil
}

func (uc *UseCase) ToggleCompletion(ctx context.Context, id string) (domain.Goal, error) {
	updated, err := uc.goals.Update(ctx, id, func(g *domain.Goal) error {
		g.ToggleCompletion(uc.clock.Now())
		return nil
	})
	if err != nil {
		return domain.Goal{}, err
	}
	if updated.Completed {
		uc.notify(ctx, "Goal Completed! 🎉", fmt.Sprintf("%q completed", updated.Title), "goal-status")
	} else {
		uc.notify(ctx, "Goal Reopened", fmt.Sprintf("%q reopened", updated.Title), "goal-status")
	}
	return updated, nil
}

func (uc *UseCase) ToggleMilestone(ctx context.Context, goalID, milestoneID string) (domain.Goal, error) {
	return uc.goals.Update(ctx, goalID, func(g *domain.Goal) error {
		if !g.ToggleMilestone(milestoneID) {
			return errMilestoneNotFound
		}
		return nil
	})
}

func (uc *UseCase) notify(ctx context.Context, title, body, tag string) {
	if uc.notifier == nil {
		return
	}
	err := uc.notifier.Notify(ctx, domain.Notification{
		Title:     title,
		Body:      body,
		Tag:       tag,
		Link:      "/goals",
		CreatedAt: uc.clock.Now(),
	})
	if err != nil {
		uc.logger.Warn("goal notification failed", zap.String("tag", tag), zap.Error(err))
	}
}

func assignMilestoneIDs(milestones []domain.Milestone) {
	for i := range milestones {
		if milestones[i].ID == "" {
			milestones[i].ID = uuid.NewString()
		}
	}
}
