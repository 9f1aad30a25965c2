package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	analyticsUC "github.com/fastygo/auraplan/usecase/analytics"
)

func NewExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task, goal, achievement and setting as JSON",
		Long: `Export writes the portable snapshot to stdout, or to a file with -o.
Pass -o with a directory to use the dated default file name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if output == "" {
				_, err := opts.planner.Analytics.WriteExport(ctx, cmd.OutOrStdout())
				return err
			}
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				output = filepath.Join(output, analyticsUC.ExportFileName(opts.planner.Clock.Now()))
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			snapshot, err := opts.planner.Analytics.WriteExport(ctx, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(map[string]any{
				"file":  output,
				"tasks": len(snapshot.Tasks),
				"goals": len(snapshot.Goals),
			}, fmt.Sprintf("Exported %d task(s) and %d goal(s) to %s", len(snapshot.Tasks), len(snapshot.Goals), output))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or directory")
	return cmd
}

func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore an export, replacing the collections it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			result, err := opts.planner.Analytics.ReadImport(cmd.Context(), r)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(result,
				fmt.Sprintf("Imported %d task(s), %d goal(s), %d achievement(s)", result.Tasks, result.Goals, result.Achievements))
		},
	}
}
