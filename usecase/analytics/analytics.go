// Package analytics derives statistics, streaks and achievements from the local
// collections and produces the portable export snapshot.
package analytics

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
	"github.com/fastygo/auraplan/repository/local"
	"github.com/fastygo/auraplan/usecase"
)

// streakHorizon bounds how far back a streak is counted.
const streakHorizon = 365

type rule struct {
	achievement domain.Achievement
	unlocked    func(completedTasks, completedGoals, streak int) bool
}

var rules = []rule{
	{domain.Achievement{ID: "first_task", Title: "First Step", Description: "Complete your first task"},
		func(t, _, _ int) bool { return t >= 1 }},
	{domain.Achievement{ID: "task_10", Title: "Getting Started", Description: "Complete 10 tasks"},
		func(t, _, _ int) bool { return t >= 10 }},
	{domain.Achievement{ID: "task_50", Title: "Productive", Description: "Complete 50 tasks"},
		func(t, _, _ int) bool { return t >= 50 }},
	{domain.Achievement{ID: "task_100", Title: "Task Master", Description: "Complete 100 tasks"},
		func(t, _, _ int) bool { return t >= 100 }},
	{domain.Achievement{ID: "first_goal", Title: "Goal Achiever", Description: "Complete your first goal"},
		func(_, g, _ int) bool { return g >= 1 }},
	{domain.Achievement{ID: "goal_5", Title: "Goal Crusher", Description: "Complete 5 goals"},
		func(_, g, _ int) bool { return g >= 5 }},
	{domain.Achievement{ID: "streak_7", Title: "Week Warrior", Description: "Maintain a 7-day streak"},
		func(_, _, s int) bool { return s >= 7 }},
	{domain.Achievement{ID: "streak_30", Title: "Monthly Master", Description: "Maintain a 30-day streak"},
		func(_, _, s int) bool { return s >= 30 }},
}

type UseCase struct {
	tasks    *local.Tasks
	goals    *local.Goals
	store    *localstore.Store
	notifier usecase.Notifier
	clock    clock.Clock
	logger   *zap.Logger
}

func New(tasks *local.Tasks, goals *local.Goals, store *localstore.Store, notifier usecase.Notifier, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	return &UseCase{
		tasks:    tasks,
		goals:    goals,
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger.Named("analytics"),
	}
}

// Stats counts tasks by state, priority and category.
func (uc *UseCase) Stats(ctx context.Context) (domain.Stats, error) {
	items, err := uc.tasks.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	now := uc.clock.Now()
	stats := domain.Stats{
		Total:      len(items),
		ByPriority: make(map[domain.Priority]int),
		ByCategory: make(map[string]int),
	}
	for i := range items {
		t := &items[i]
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		stats.ByPriority[t.Priority]++
		stats.ByCategory[t.Category]++
	}
	return stats, nil
}

func (uc *UseCase) GoalOverview(ctx context.Context) (domain.GoalOverview, error) {
	return uc.goals.Overview(ctx, uc.clock.Now())
}

// ProgressData returns completions per day for the last days days, oldest first.
func (uc *UseCase) ProgressData(ctx context.Context, days int) ([]domain.DayProgress, error) {
	if days <= 0 {
		days = 7
	}
	perDay, err := uc.completionsByDay(ctx)
	if err != nil {
		return nil, err
	}
	today := domain.StartOfDay(uc.clock.Now())
	out := make([]domain.DayProgress, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(domain.DateLayout)
		out = append(out, domain.DayProgress{Date: day, Completed: perDay[day]})
	}
	return out, nil
}

// Streak counts consecutive days, ending today, with at least one completion.
func (uc *UseCase) Streak(ctx context.Context) (int, error) {
	perDay, err := uc.completionsByDay(ctx)
	if err != nil {
		return 0, err
	}
	return streak(perDay, uc.clock.Now()), nil
}

// AverageDaily is completed tasks divided by the number of distinct completion days.
func (uc *UseCase) AverageDaily(ctx context.Context) (float64, error) {
	perDay, err := uc.completionsByDay(ctx)
	if err != nil {
		return 0, err
	}
	return averageDaily(perDay), nil
}

// Achievements lists unlocked achievements, most recent first.
func (uc *UseCase) Achievements(ctx context.Context) []domain.Achievement {
	items := localstore.Load[domain.Achievement](uc.store, localstore.KeyAchievements)
	sort.SliceStable(items, func(i, j int) bool {
		return unlockedAt(items[i]).After(unlockedAt(items[j]))
	})
	return items
}

// CheckAchievements persists newly earned achievements and announces them.
func (uc *UseCase) CheckAchievements(ctx context.Context) ([]domain.Achievement, error) {
	summary, err := uc.Summary(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	var unlocked []domain.Achievement
	err = localstore.Update(uc.store, localstore.KeyAchievements, func(existing []domain.Achievement) ([]domain.Achievement, error) {
		have := make(map[string]struct{}, len(existing))
		for _, a := range existing {
			have[a.ID] = struct{}{}
		}
		for _, r := range rules {
			if _, ok := have[r.achievement.ID]; ok {
				continue
			}
			if !r.unlocked(summary.CompletedTasks, summary.CompletedGoals, summary.CurrentStreak) {
				continue
			}
			a := r.achievement
			at := now
			a.UnlockedAt = &at
			unlocked = append(unlocked, a)
		}
		return append(existing, unlocked...), nil
	})
	if err != nil {
		return nil, err
	}
	if len(unlocked) > 0 && uc.notifier != nil {
		first := unlocked[0]
		if err := uc.notifier.Notify(ctx, domain.Notification{
			Title:     "🏆 Achievement Unlocked!",
			Body:      first.Title + ": " + first.Description,
			Tag:       "achievement-" + first.ID,
			Link:      "/analytics",
			CreatedAt: now,
		}); err != nil {
			uc.logger.Warn("achievement notification failed", zap.Error(err))
		}
	}
	return unlocked, nil
}

// Summary computes the headline counts of an export.
func (uc *UseCase) Summary(ctx context.Context) (domain.Summary, error) {
	tasks, err := uc.tasks.List(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	goals, err := uc.goals.List(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return summarize(tasks, goals, uc.clock.Now()), nil
}

// Export captures every local collection plus the derived summary.
func (uc *UseCase) Export(ctx context.Context) (domain.Snapshot, error) {
	tasks, err := uc.tasks.List(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	goals, err := uc.goals.List(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	settings := uc.store.LoadSettings()
	now := uc.clock.Now()
	return domain.Snapshot{
		Tasks:        tasks,
		Goals:        goals,
		Achievements: uc.Achievements(ctx),
		Settings:     &settings,
		ExportedAt:   now,
		Summary:      summarize(tasks, goals, now),
	}, nil
}

// WriteExport encodes the snapshot as indented JSON.
func (uc *UseCase) WriteExport(ctx context.Context, w io.Writer) (domain.Snapshot, error) {
	snapshot, err := uc.Export(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return snapshot, enc.Encode(snapshot)
}

// ExportFileName is the suggested download name for a snapshot taken at t.
func ExportFileName(t time.Time) string {
	return "auraplan-analytics-" + t.Format(domain.DateLayout) + ".json"
}

// ImportResult reports what an import replaced.
type ImportResult struct {
	Tasks        int  `json:"tasks"`
	Goals        int  `json:"goals"`
	Achievements int  `json:"achievements"`
	Settings     bool `json:"settings"`
}

// Import replaces each collection present in the snapshot. Absent collections
// are left alone. Every entity is validated before anything is written, and
// imported entities are marked unsynced so the next sync pushes them.
func (uc *UseCase) Import(ctx context.Context, snapshot domain.Snapshot) (ImportResult, error) {
	now := uc.clock.Now()
	taskIDs := make(map[string]struct{}, len(snapshot.Tasks))
	for i := range snapshot.Tasks {
		t := &snapshot.Tasks[i]
		t.Title = strings.TrimSpace(t.Title)
		if err := prepare(t, now, taskIDs); err != nil {
			return ImportResult{}, err
		}
		if err := usecase.Validate(t); err != nil {
			return ImportResult{}, err
		}
	}
	goalIDs := make(map[string]struct{}, len(snapshot.Goals))
	for i := range snapshot.Goals {
		g := &snapshot.Goals[i]
		g.Normalize()
		if err := prepare(g, now, goalIDs); err != nil {
			return ImportResult{}, err
		}
		if err := usecase.Validate(g); err != nil {
			return ImportResult{}, err
		}
	}

	var result ImportResult
	if snapshot.Tasks != nil {
		if err := uc.tasks.ReplaceAll(ctx, snapshot.Tasks); err != nil {
			return result, err
		}
		result.Tasks = len(snapshot.Tasks)
	}
	if snapshot.Goals != nil {
		if err := uc.goals.ReplaceAll(ctx, snapshot.Goals); err != nil {
			return result, err
		}
		result.Goals = len(snapshot.Goals)
	}
	if snapshot.Achievements != nil {
		if err := localstore.Save(uc.store, localstore.KeyAchievements, snapshot.Achievements); err != nil {
			return result, err
		}
		result.Achievements = len(snapshot.Achievements)
	}
	if snapshot.Settings != nil {
		if err := uc.store.SaveSettings(*snapshot.Settings); err != nil {
			return result, err
		}
		result.Settings = true
	}
	uc.logger.Info("snapshot imported",
		zap.Int("tasks", result.Tasks),
		zap.Int("goals", result.Goals),
		zap.Bool("settings", result.Settings))
	return result, nil
}

// ReadImport decodes a snapshot previously produced by WriteExport.
func (uc *UseCase) ReadImport(ctx context.Context, r io.Reader) (ImportResult, error) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return ImportResult{}, domain.DeserializationError("import", err)
	}
	return uc.Import(ctx, snapshot)
}

// prepare gives id-less entities a fresh id and rejects ids repeated within
// one collection.
func prepare(e domain.Entity, now time.Time, seen map[string]struct{}) error {
	id := strings.TrimSpace(e.EntityID())
	if id == "" {
		id = local.NewID(now)
	}
	if _, dup := seen[id]; dup {
		return domain.NewError(domain.ErrCodeInvalid, "duplicate id "+id+" in import")
	}
	seen[id] = struct{}{}
	e.AssignID(id)
	if e.Created().IsZero() {
		e.Stamp(now)
	}
	e.MarkSynced(false)
	return nil
}

func (uc *UseCase) completionsByDay(ctx context.Context) (map[string]int, error) {
	tasks, err := uc.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return completionsByDay(tasks, uc.clock.Now().Location()), nil
}

func completionsByDay(tasks []domain.Task, loc *time.Location) map[string]int {
	perDay := make(map[string]int)
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			perDay[t.CompletedAt.In(loc).Format(domain.DateLayout)]++
		}
	}
	return perDay
}

func streak(perDay map[string]int, now time.Time) int {
	day := domain.StartOfDay(now)
	n := 0
	for n < streakHorizon && perDay[day.Format(domain.DateLayout)] > 0 {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func averageDaily(perDay map[string]int) float64 {
	if len(perDay) == 0 {
		return 0
	}
	total := 0
	for _, n := range perDay {
		total += n
	}
	return math.Round(float64(total)/float64(len(perDay))*100) / 100
}

func summarize(tasks []domain.Task, goals []domain.Goal, now time.Time) domain.Summary {
	s := domain.Summary{TotalTasks: len(tasks), TotalGoals: len(goals)}
	for _, t := range tasks {
		if t.Completed {
			s.CompletedTasks++
		}
	}
	for _, g := range goals {
		if g.Completed {
			s.CompletedGoals++
		}
	}
	perDay := completionsByDay(tasks, now.Location())
	s.CurrentStreak = streak(perDay, now)
	s.AverageDaily = averageDaily(perDay)
	return s
}

func unlockedAt(a domain.Achievement) time.Time {
	if a.UnlockedAt == nil {
		return time.Time{}
	}
	return *a.UnlockedAt
}
