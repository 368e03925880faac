package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/metrics"
)

func newExportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <table> [table...]",
		Short: "Export table snapshots as CSV",
		Long: `Export fetches a fresh snapshot of each table and writes it with the
default filters and sort order.

Without --out the CSV is written to stdout. With --out each table is
written to <dir>/<table>_<YYYY-MM-DD>.csv.`,
		Example: `  rosterctl export users > users.csv
  rosterctl export users events --out exports/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, table := range args {
				if _, err := core.Lookup(table); err != nil {
					return userError(err)
				}
			}
			if outDir == "" && len(args) > 1 {
				return fmt.Errorf("exporting %d tables to stdout needs --out", len(args))
			}

			return withStore(cmd, func(ctx context.Context, e *env) error {
				var sink core.DownloadSink = core.WriterSink{W: cmd.OutOrStdout()}
				if outDir != "" {
					sink = core.FileSink{Dir: outDir}
				}

				for _, table := range args {
					filename, err := e.service.ExportSnapshot(ctx, table, sink, metrics.TriggerCLI)
					if err != nil {
						return userError(fmt.Errorf("export %s: %w", table, err))
					}
					if outDir != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", filepath.Join(outDir, filename))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write CSV files into (default: stdout)")
	return cmd
}
