// Package align implements the align command.
package align

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/placemap/internal/cmd/application"
)

// Flags holds the align command flags.
type Flags struct {
	Database    string
	MetricsFile string
	Limit       int
}

// NewCommand creates the align command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "align",
		GroupID: "core",
		Short:   "Align the configured gazetteers and report the result",
		Long: `Align loads every configured data source, runs the configured alignment
strategies and prints the filtered, sorted report.

Strategies run in the order listed under alignment_modes. Inference runs
where it is listed, or last when it is not. Toponymy and typology only
annotate alignments already found by the boost modes.`,
		Example: `  placemap align --config placemap.yaml
  placemap align -o json --limit 20
  placemap align --db runs.db --metrics-file placemap.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.Database == "" {
				flags.Database = app.DatabasePath()
			}
			return Execute(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.Database, "db", "", "persist the run to this SQLite database")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "limit the number of reported alignments (overrides report.limit)")

	return cmd
}
