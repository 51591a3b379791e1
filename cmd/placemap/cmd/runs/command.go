// Package runs implements the runs command for inspecting persisted
// alignment runs.
package runs

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/placemap/internal/cmd/application"
	"github.com/agentstation/placemap/internal/cmd/output"
	"github.com/agentstation/placemap/internal/store/sqlite"
	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/differ"
	"github.com/agentstation/placemap/pkg/errors"
)

// NewCommand creates the runs command with its list and show subcommands.
func NewCommand(app application.Application) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:     "runs",
		GroupID: "management",
		Short:   "Inspect persisted alignment runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "run database (defaults to PLACEMAP_DB)")

	database := func() string {
		if dbPath != "" {
			return dbPath
		}
		return app.DatabasePath()
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List runs, newest first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return List(cmd.Context(), app, database(), cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its alignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Show(cmd.Context(), app, database(), args[0], cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "diff <old-run-id> <new-run-id>",
		Short: "Compare the alignments of two runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Diff(cmd.Context(), app, database(), args[0], args[1], cmd.OutOrStdout())
		},
	})

	return cmd
}

// RunDetail is a run together with its alignment records.
type RunDetail struct {
	Run     sqlite.Run         `json:"run" yaml:"run"`
	Records []alignment.Record `json:"alignments" yaml:"alignments"`
}

// TableData implements output.Tabular.
func (d RunDetail) TableData(bool) output.Data {
	return output.RecordsToTableData(d.Records)
}

type runList []sqlite.Run

// TableData implements output.Tabular.
func (l runList) TableData(bool) output.Data {
	return output.RunsToTableData(l)
}

// List writes every stored run to w.
func List(ctx context.Context, app application.Application, dbPath string, w io.Writer) error {
	store, err := open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	app.Logger().Debug().Int("runs", len(runs)).Str("db", dbPath).Msg("Listed runs")
	return output.NewFormatter(output.DetectFormat(app.OutputFormat())).Format(w, runList(runs))
}

// Show writes one stored run and its records to w.
func Show(ctx context.Context, app application.Application, dbPath, id string, w io.Writer) error {
	store, err := open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, records, err := store.LoadRun(ctx, id)
	if err != nil {
		return err
	}
	return output.NewFormatter(output.DetectFormat(app.OutputFormat())).Format(w, RunDetail{Run: run, Records: records})
}

type changeset struct {
	*differ.Changeset
}

// TableData implements output.Tabular.
func (c changeset) TableData(bool) output.Data {
	var rows [][]string
	for _, r := range c.Added {
		rows = append(rows, []string{"+", strings.Join(r.AlignedIDs, " "), "", strings.Join(r.Modes, ",")})
	}
	for _, u := range c.Updated {
		for _, ch := range u.Changes {
			rows = append(rows, []string{"~", u.Key.String(), ch.Path, ch.OldValue + " -> " + ch.NewValue})
		}
	}
	for _, r := range c.Removed {
		rows = append(rows, []string{"-", strings.Join(r.AlignedIDs, " "), "", strings.Join(r.Modes, ",")})
	}
	return output.Data{Headers: []string{"", "Aligned IDs", "Field", "Change"}, Rows: rows}
}

// Diff writes the changes between two stored runs to w.
func Diff(ctx context.Context, app application.Application, dbPath, oldID, newID string, w io.Writer) error {
	store, err := open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	_, existing, err := store.LoadRun(ctx, oldID)
	if err != nil {
		return err
	}
	_, updated, err := store.LoadRun(ctx, newID)
	if err != nil {
		return err
	}

	cs := differ.New().Records(existing, updated)
	app.Logger().Info().Str("old", oldID).Str("new", newID).Msg(cs.String())
	return output.NewFormatter(output.DetectFormat(app.OutputFormat())).Format(w, changeset{cs})
}

func open(dbPath string) (*sqlite.Store, error) {
	if dbPath == "" {
		return nil, errors.NewValidationError("db", nil, "no run database given (use --db or PLACEMAP_DB)")
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, errors.WrapResource("open", "database", dbPath, err)
	}
	return store, nil
}
