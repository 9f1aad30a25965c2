package domain

// Settings holds user preferences persisted alongside the collections.
type Settings struct {
	Theme         string               `json:"theme" validate:"oneof=light dark auto"`
	Notifications NotificationSettings `json:"notifications"`
	Reminders     ReminderSettings     `json:"reminders"`
	Calendar      CalendarSettings     `json:"calendar"`
}

type NotificationSettings struct {
	Enabled bool `json:"enabled"`
	Email   bool `json:"email"`
	Push    bool `json:"push"`
	Sound   bool `json:"sound"`
}

type ReminderSettings struct {
	DefaultMinutes int  `json:"default_time" validate:"gte=0,lte=10080"`
	AutoSnooze     bool `json:"auto_snooze"`
}

type CalendarSettings struct {
	DefaultView  string       `json:"default_view" validate:"oneof=month week day"`
	WeekStartsOn int          `json:"week_starts_on" validate:"gte=0,lte=6"`
	WorkingHours WorkingHours `json:"working_hours"`
}

type WorkingHours struct {
	Start int `json:"start" validate:"gte=0,lte=23"`
	End   int `json:"end" validate:"gte=1,lte=24,gtfield=Start"`
}

// DefaultSettings is returned when nothing has been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		Theme: "light",
		Notifications: NotificationSettings{
			Enabled: true,
			Email:   false,
			Push:    true,
			Sound:   true,
		},
		Reminders: ReminderSettings{
			DefaultMinutes: 30,
			AutoSnooze:     false,
		},
		Calendar: CalendarSettings{
			DefaultView:  "month",
			WeekStartsOn: 1,
			WorkingHours: WorkingHours{Start: 9, End: 17},
		},
	}
}
