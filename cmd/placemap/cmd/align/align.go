package align

import (
	"context"
	"io"
	"time"

	"github.com/agentstation/placemap/internal/cmd/application"
	"github.com/agentstation/placemap/internal/cmd/output"
	"github.com/agentstation/placemap/internal/config"
	"github.com/agentstation/placemap/internal/ingest"
	"github.com/agentstation/placemap/internal/metrics"
	"github.com/agentstation/placemap/internal/store/sqlite"
	"github.com/agentstation/placemap/pkg/aligner"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/report"
)

// Result is what one align run produced.
type Result struct {
	Run     sqlite.Run
	Entries []report.Entry
}

// TableData implements output.Tabular.
func (r Result) TableData(wide bool) output.Data {
	return output.EntriesToTableData(r.Entries, wide)
}

// Execute runs the alignment described by the application's config file
// and writes the report to w.
func Execute(ctx context.Context, app application.Application, flags *Flags, w io.Writer) error {
	result, err := Run(ctx, app, flags)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	var data any = result.Entries
	if format == output.FormatTable || format == output.FormatWide {
		data = result
	}
	return output.NewFormatter(format).Format(w, data)
}

// Run loads, aligns, reports and optionally persists one run.
func Run(ctx context.Context, app application.Application, flags *Flags) (*Result, error) {
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)

	run := sqlite.Run{
		ID:         sqlite.NewRunID(),
		StartedAt:  time.Now().UTC(),
		ConfigPath: app.ConfigPath(),
		Places:     map[string]int{},
	}
	ctx = logging.WithRunID(ctx, run.ID)
	logger = logging.FromContext(ctx)

	cfg, err := config.Load(app.ConfigPath())
	if err != nil {
		return nil, err
	}
	run.Modes = cfg.AlignmentModes

	registry, err := ingest.LoadAll(ctx, cfg.DataSources)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	for _, ns := range registry.Namespaces() {
		ds, err := registry.DataSet(ns)
		if err != nil {
			return nil, err
		}
		run.Places[ns] = ds.Len()
		m.SetPlaces(ns, ds.Len())
	}

	opts := []aligner.Option{
		aligner.WithRedirects(cfg.RedirectMap()),
		aligner.WithDataSources(cfg.DataSourceMap()),
		aligner.WithLogger(logger),
	}
	if cfg.Workers > 0 {
		opts = append(opts, aligner.WithWorkers(cfg.Workers))
	}
	a, err := aligner.New(registry, opts...)
	if err != nil {
		return nil, err
	}
	m.Attach(a)

	plan, err := cfg.Plan()
	if err != nil {
		return nil, err
	}
	strategies, err := plan.Strategies()
	if err != nil {
		return nil, err
	}
	if err := a.Align(ctx, strategies...); err != nil {
		return nil, err
	}
	run.FinishedAt = time.Now().UTC()
	run.Alignments = a.Len()

	reportOpts, err := cfg.ReportOptions()
	if err != nil {
		return nil, err
	}
	if flags.Limit > 0 {
		reportOpts.Limit = flags.Limit
	}
	entries, err := report.Build(ctx, a.Alignments(), registry, reportOpts)
	if err != nil {
		return nil, err
	}

	if flags.Database != "" {
		if err := save(ctx, flags.Database, run, a); err != nil {
			return nil, err
		}
		logger.Info().Str("db", flags.Database).Msg("Saved run")
	}

	if flags.MetricsFile != "" {
		if err := m.WriteTextfile(flags.MetricsFile); err != nil {
			return nil, errors.WrapIO("write", flags.MetricsFile, err)
		}
	}

	logger.Info().
		Int("alignments", run.Alignments).
		Int("reported", len(entries)).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Alignment finished")

	return &Result{Run: run, Entries: entries}, nil
}

func save(ctx context.Context, path string, run sqlite.Run, a *aligner.Aligner) error {
	store, err := sqlite.New(path)
	if err != nil {
		return errors.WrapResource("open", "database", path, err)
	}
	defer func() { _ = store.Close() }()

	return store.SaveRun(ctx, run, a.Records())
}
