package domain

import (
	"strings"
	"time"
)

// Priority ranks tasks and goals.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultCategory is applied to tasks created without one.
const DefaultCategory = "study"

// Task represents a user-owned activity item.
type Task struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id,omitempty"`
	Title           string     `json:"title" validate:"required,notblank,max=500"`
	Description     string     `json:"description,omitempty" validate:"max=5000"`
	Priority        Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category        string     `json:"category,omitempty" validate:"max=64"`
	DueDate         string     `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueTime         string     `json:"due_time,omitempty" validate:"omitempty,datetime=15:04"`
	ReminderMinutes *int       `json:"reminder_minutes,omitempty" validate:"omitempty,min=0,max=10080"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Synced          bool       `json:"synced"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (t *Task) EntityID() string         { return t.ID }
func (t *Task) AssignID(id string)       { t.ID = id }
func (t *Task) Owner() string            { return t.OwnerID }
func (t *Task) AssignOwner(owner string) { t.OwnerID = owner }
func (t *Task) Created() time.Time       { return t.CreatedAt }
func (t *Task) LastModified() time.Time  { return t.UpdatedAt }
func (t *Task) IsSynced() bool           { return t.Synced }
func (t *Task) MarkSynced(synced bool)   { t.Synced = synced }

// Stamp records a local modification.
func (t *Task) Stamp(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Synced = false
}

// SetCompleted keeps CompletedAt paired with Completed.
func (t *Task) SetCompleted(done bool, now time.Time) {
	if done == t.Completed && (done == (t.CompletedAt != nil)) {
		return
	}
	t.Completed = done
	if done {
		at := now
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = nil
}

// ApplyDefaults fills in creation defaults.
func (t *Task) ApplyDefaults() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
}

// DueDay returns the due date at midnight in loc.
func (t *Task) DueDay(loc *time.Location) (time.Time, bool) {
	return parseDay(t.DueDate, loc)
}

// DueAt combines the due date and due time. Both must be present.
func (t *Task) DueAt(loc *time.Location) (time.Time, bool) {
	day, ok := parseDay(t.DueDate, loc)
	if !ok || t.DueTime == "" {
		return time.Time{}, false
	}
	clock, err := time.Parse(ClockLayout, t.DueTime)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), true
}

// Deadline is the due instant, or the start of the due day when no time is set.
func (t *Task) Deadline(loc *time.Location) (time.Time, bool) {
	if at, ok := t.DueAt(loc); ok {
		return at, true
	}
	return t.DueDay(loc)
}

// IsOverdue reports an incomplete task whose deadline has passed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.Completed {
		return false
	}
	deadline, ok := t.Deadline(now.Location())
	return ok && deadline.Before(now)
}

// Matches performs a case-insensitive search over title, description and category.
func (t *Task) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.Category), q)
}

// TaskPatch is a shallow partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title           *string   `json:"title,omitempty" validate:"omitempty,notblank,max=500"`
	Description     *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority        *Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Category        *string   `json:"category,omitempty" validate:"omitempty,max=64"`
	DueDate         *string   `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueTime         *string   `json:"due_time,omitempty" validate:"omitempty,datetime=15:04"`
	ReminderMinutes *int      `json:"reminder_minutes,omitempty" validate:"omitempty,min=0,max=10080"`
	ClearReminder   bool      `json:"clear_reminder,omitempty"`
	ClearDue        bool      `json:"clear_due,omitempty"`
	Completed       *bool     `json:"completed,omitempty"`
}

// Normalize trims a patched title.
func (p *TaskPatch) Normalize() {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ClearDue {
		t.DueDate, t.DueTime = "", ""
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.DueTime != nil {
		t.DueTime = *p.DueTime
	}
	if p.ClearReminder {
		t.ReminderMinutes = nil
	}
	if p.ReminderMinutes != nil {
		minutes := *p.ReminderMinutes
		t.ReminderMinutes = &minutes
	}
	if p.Completed != nil {
		t.SetCompleted(*p.Completed, now)
	}
}

// TouchesSchedule reports whether the patch changes anything a reminder depends on.
func (p TaskPatch) TouchesSchedule() bool {
	return p.DueDate != nil || p.DueTime != nil || p.ReminderMinutes != nil ||
		p.ClearReminder || p.ClearDue || p.Completed != nil || p.Title != nil || p.Description != nil
}
