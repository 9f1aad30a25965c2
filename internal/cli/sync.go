package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/auraplan/domain"
)

func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push local changes and pull remote ones once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := opts.planner
			f := opts.formatter(cmd)

			status := p.Monitor.Refresh(ctx)
			f.VerboseLog("remote services: %v", status.Services)
			// Coming online starts a background pass; let it finish first.
			p.Sync.Drain(ctx)

			result, err := p.Sync.Sync(ctx, domain.TriggerManual)
			if err != nil {
				return err
			}
			if result.Skipped != "" {
				return f.Success(result, "Sync skipped: "+result.Skipped)
			}
			return f.Success(result, fmt.Sprintf("Pushed %d, deleted %d, pulled %d in %s",
				result.Pushed, result.Deleted, result.Pulled, result.Duration))
		},
	}
}

func NewSignInCommand(opts *RootOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "signin [user-id]",
		Short: "Become user-id, or a guest when omitted",
		Long: `signin records the identity that owns the local data. Signing in as a
user while a guest hands the guest's tasks and goals to that user.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := ""
			if len(args) == 1 {
				userID = args[0]
			}
			session, err := opts.planner.Auth.SignIn(cmd.Context(), userID, ttl)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(session, "Signed in as "+session.UserID)
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "session lifetime (defaults to SESSION_TTL)")
	return cmd
}
