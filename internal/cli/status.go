package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/auraplan/domain"
)

// StatusReport is printed by the status command.
type StatusReport struct {
	Identity        *domain.Identity  `json:"identity,omitempty"`
	Summary         domain.Summary    `json:"summary"`
	Sync            domain.SyncStatus `json:"sync"`
	ActiveReminders int               `json:"active_reminders"`
	LocalKeys       int               `json:"local_keys"`
}

func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show totals, sync state and pending reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := opts.planner

			var report StatusReport
			var err error
			if report.Identity, err = p.Auth.CurrentIdentity(ctx); err != nil {
				return err
			}
			if report.Summary, err = p.Analytics.Summary(ctx); err != nil {
				return err
			}
			active, err := p.Reminders.Active(ctx)
			if err != nil {
				return err
			}
			report.ActiveReminders = len(active)
			report.Sync = p.Store.SyncStatus()
			if report.LocalKeys, err = p.Store.Size(); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(report, report.text())
		},
	}
}

func (r StatusReport) text() string {
	var b strings.Builder
	who := "nobody (signed out)"
	if r.Identity != nil {
		who = r.Identity.ID
		if r.Identity.Anonymous {
			who += " (guest)"
		}
	}
	fmt.Fprintf(&b, "Identity:   %s\n", who)
	fmt.Fprintf(&b, "Tasks:      %d/%d completed\n", r.Summary.CompletedTasks, r.Summary.TotalTasks)
	fmt.Fprintf(&b, "Goals:      %d/%d completed\n", r.Summary.CompletedGoals, r.Summary.TotalGoals)
	fmt.Fprintf(&b, "Streak:     %d day(s), %.2f tasks/day\n", r.Summary.CurrentStreak, r.Summary.AverageDaily)
	fmt.Fprintf(&b, "Reminders:  %d pending\n", r.ActiveReminders)
	fmt.Fprintf(&b, "Last sync:  %s", formatTime(r.Sync.LastSync))
	if r.Sync.PendingSync {
		b.WriteString(" (local changes pending)")
	}
	if r.Sync.LastError != "" {
		fmt.Fprintf(&b, "\nSync error: %s", r.Sync.LastError)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
