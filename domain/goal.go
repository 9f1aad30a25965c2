package domain

import (
	"math"
	"strings"
	"time"
)

// Milestone is an intermediate checkpoint on a goal.
type Milestone struct {
	ID        string `json:"id"`
	Title     string `json:"title" validate:"required,notblank,max=200"`
	Date      string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Completed bool   `json:"completed"`
}

// ProgressNote is an append-only record of a progress update.
type ProgressNote struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
	Notes string    `json:"notes"`
}

// Goal is a measurable target with progress tracking.
type Goal struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id,omitempty"`
	Title         string         `json:"title" validate:"required,notblank,max=200"`
	Description   string         `json:"description,omitempty" validate:"max=5000"`
	Category      string         `json:"category,omitempty" validate:"max=64"`
	Priority      Priority       `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	StartDate     string         `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TargetDate    string         `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TargetValue   int            `json:"target_value" validate:"gt=0"`
	CurrentValue  int            `json:"current_value" validate:"gte=0"`
	Unit          string         `json:"unit,omitempty" validate:"max=32"`
	Milestones    []Milestone    `json:"milestones,omitempty" validate:"dive"`
	Completed     bool           `json:"completed"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	ProgressNotes []ProgressNote `json:"progress_notes,omitempty"`
	Synced        bool           `json:"synced"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (g *Goal) EntityID() string         { return g.ID }
func (g *Goal) AssignID(id string)       { g.ID = id }
func (g *Goal) Owner() string            { return g.OwnerID }
func (g *Goal) AssignOwner(owner string) { g.OwnerID = owner }
func (g *Goal) Created() time.Time       { return g.CreatedAt }
func (g *Goal) LastModified() time.Time  { return g.UpdatedAt }
func (g *Goal) IsSynced() bool           { return g.Synced }
func (g *Goal) MarkSynced(synced bool)   { g.Synced = synced }

// Stamp records a local modification.
func (g *Goal) Stamp(now time.Time) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	g.Synced = false
}

// Progress is the completion percentage with CurrentValue clamped to [0, TargetValue].
func (g *Goal) Progress() float64 {
	if g == nil || g.TargetValue <= 0 {
		return 0
	}
	current := max(0, min(g.CurrentValue, g.TargetValue))
	return float64(current) / float64(g.TargetValue) * 100
}

// Normalize trims the goal and milestone titles.
func (g *Goal) Normalize() {
	g.Title = strings.TrimSpace(g.Title)
	for i := range g.Milestones {
		g.Milestones[i].Title = strings.TrimSpace(g.Milestones[i].Title)
	}
}

// SetProgress records a new current value. Negative values are rejected.
func (g *Goal) SetProgress(value int, notes string, now time.Time) error {
	if value < 0 {
		return NewError(ErrCodeInvalid, "progress value must be a non-negative integer")
	}
	g.CurrentValue = value
	g.setCompleted(g.TargetValue > 0 && value >= g.TargetValue, now)
	if notes != "" {
		g.ProgressNotes = append(g.ProgressNotes, ProgressNote{Date: now, Value: value, Notes: notes})
	}
	return nil
}

// ToggleCompletion flips completion. Completing a goal fills it to its target.
func (g *Goal) ToggleCompletion(now time.Time) {
	if g.Completed {
		g.setCompleted(false, now)
		return
	}
	g.CurrentValue = g.TargetValue
	g.setCompleted(true, now)
}

// ToggleMilestone flips one milestone and reports whether it was found.
func (g *Goal) ToggleMilestone(id string) bool {
	for i := range g.Milestones {
		if g.Milestones[i].ID == id {
			g.Milestones[i].Completed = !g.Milestones[i].Completed
			return true
		}
	}
	return false
}

func (g *Goal) setCompleted(done bool, now time.Time) {
	if done == g.Completed && done == (g.CompletedAt != nil) {
		return
	}
	g.Completed = done
	if done {
		at := now
		g.CompletedAt = &at
		return
	}
	g.CompletedAt = nil
}

// IsOverdue reports an incomplete goal whose target date has passed.
func (g *Goal) IsOverdue(now time.Time) bool {
	if g == nil || g.Completed {
		return false
	}
	day, ok := parseDay(g.TargetDate, now.Location())
	return ok && day.Before(StartOfDay(now))
}

// DaysLeft counts whole days until the target date. Negative when overdue.
func (g *Goal) DaysLeft(now time.Time) (int, bool) {
	day, ok := parseDay(g.TargetDate, now.Location())
	if !ok {
		return 0, false
	}
	return int(math.Round(day.Sub(StartOfDay(now)).Hours() / 24)), true
}

// GoalPatch is a shallow partial update. Nil fields are left untouched.
type GoalPatch struct {
	Title       *string      `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string      `json:"category,omitempty" validate:"omitempty,max=64"`
	Priority    *Priority    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	StartDate   *string      `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TargetDate  *string      `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TargetValue *int         `json:"target_value,omitempty" validate:"omitempty,gt=0"`
	Unit        *string      `json:"unit,omitempty" validate:"omitempty,max=32"`
	Milestones  *[]Milestone `json:"milestones,omitempty"`
}

// Normalize trims a patched title.
func (p *GoalPatch) Normalize() {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
}

// Apply merges the patch into g. Completion is re-evaluated when the target moves.
func (p GoalPatch) Apply(g *Goal, now time.Time) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	if p.Priority != nil {
		g.Priority = *p.Priority
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	if p.Unit != nil {
		g.Unit = *p.Unit
	}
	if p.Milestones != nil {
		g.Milestones = append([]Milestone(nil), (*p.Milestones)...)
	}
	if p.TargetValue != nil {
		g.TargetValue = *p.TargetValue
		g.setCompleted(g.CurrentValue >= g.TargetValue, now)
	}
}
