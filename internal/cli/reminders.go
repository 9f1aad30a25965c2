package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/auraplan/domain"
)

func NewRemindersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List or clear pending task reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending reminders, soonest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := opts.planner.Reminders.Active(cmd.Context())
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(active, reminderTable(active))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Cancel and forget every reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.planner.Reminders.ClearAll(cmd.Context()); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(nil, "All reminders cleared")
		},
	})
	return cmd
}

func reminderTable(reminders []domain.Reminder) string {
	if len(reminders) == 0 {
		return "No pending reminders"
	}
	var b strings.Builder
	for _, r := range reminders {
		fmt.Fprintf(&b, "%s  %-24s  %s\n", r.FireAt.Format(time.RFC3339), r.TaskID, r.Task.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
