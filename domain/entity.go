package domain

import "time"

const (
	// DateLayout is the calendar date format used by due and target dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wall clock format used by due times.
	ClockLayout = "15:04"
)

// Collection names the persisted collections that take part in sync.
type Collection string

const (
	CollectionTasks Collection = "tasks"
	CollectionGoals Collection = "goals"
)

// Entity is implemented by the pointer types of every synced collection item.
type Entity interface {
	EntityID() string
	AssignID(id string)
	Owner() string
	AssignOwner(owner string)
	Stamp(now time.Time)
	Created() time.Time
	LastModified() time.Time
	IsSynced() bool
	MarkSynced(synced bool)
}

func parseDay(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
