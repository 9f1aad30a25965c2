// Package cli implements planctl, the maintenance tool for a planner's local store.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fastygo/auraplan/internal/app"
	"github.com/fastygo/auraplan/internal/config"
	"github.com/fastygo/auraplan/pkg/logger"
)

// RootOptions holds global flags and the planner opened for the running command.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	StorePath string

	planner *app.App
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the planctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "planctl",
		Short: "Inspect and maintain an auraplan local store",
		Long: `planctl opens the local planner store directly. Run it while the
daemon is stopped: the store file is locked by whichever process holds it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return opts.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "local store path (defaults to LOCAL_STORE_PATH)")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSignInCommand(opts))
	cmd.AddCommand(NewRemindersCommand(opts))

	return cmd
}

func (o *RootOptions) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.StorePath != "" {
		cfg.Local.Path = o.StorePath
	}
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Encoding: "console"})
	if err != nil {
		return err
	}
	o.planner, err = app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open planner: %w", err)
	}
	return nil
}

func (o *RootOptions) close() error {
	if o.planner == nil {
		return nil
	}
	err := o.planner.Shutdown(context.Background())
	_ = o.planner.Logger.Sync()
	o.planner = nil
	return err
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
