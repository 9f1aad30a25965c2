package domain

import "time"

// ReminderState is the lifecycle of a scheduled reminder.
type ReminderState string

const (
	ReminderPending   ReminderState = "pending"
	ReminderFired     ReminderState = "fired"
	ReminderCancelled ReminderState = "cancelled"
	ReminderExpired   ReminderState = "expired"
)

// DefaultSnooze is used when a snooze request carries no duration.
const DefaultSnooze = 15 * time.Minute

// Reminder is a durable trigger tied to one task.
type Reminder struct {
	TaskID    string        `json:"task_id"`
	FireAt    time.Time     `json:"fire_at"`
	Minutes   int           `json:"minutes"`
	Task      Task          `json:"task"`
	State     ReminderState `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Terminal reports whether the reminder can no longer fire.
func (r *Reminder) Terminal() bool {
	return r.State != ReminderPending
}

// Notification is a user-facing message delivered through a notifier.
type Notification struct {
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Tag                string    `json:"tag,omitempty"`
	Link               string    `json:"link,omitempty"`
	RequireInteraction bool      `json:"require_interaction,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
