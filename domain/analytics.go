package domain

import "time"

// Stats aggregates task counts.
type Stats struct {
	Total      int              `json:"total"`
	Completed  int              `json:"completed"`
	Pending    int              `json:"pending"`
	Overdue    int              `json:"overdue"`
	ByPriority map[Priority]int `json:"by_priority"`
	ByCategory map[string]int   `json:"by_category"`
}

// GoalOverview aggregates goal counts.
type GoalOverview struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
	Overdue   int `json:"overdue"`
}

// DayProgress is the number of tasks completed on one day.
type DayProgress struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
}

// Achievement is an unlockable milestone.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// Summary is the headline block of an export.
type Summary struct {
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	TotalGoals     int     `json:"total_goals"`
	CompletedGoals int     `json:"completed_goals"`
	CurrentStreak  int     `json:"current_streak"`
	AverageDaily   float64 `json:"average_daily"`
}

// Snapshot is the portable export document.
type Snapshot struct {
	Tasks        []Task        `json:"tasks"`
	Goals        []Goal        `json:"goals"`
	Achievements []Achievement `json:"achievements"`
	Settings     *Settings     `json:"settings,omitempty"`
	ExportedAt   time.Time     `json:"exported_at"`
	Summary      Summary       `json:"summary"`
}
