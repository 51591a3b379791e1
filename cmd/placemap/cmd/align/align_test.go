package align

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/placemap/internal/cmd/application"
	"github.com/agentstation/placemap/internal/store/sqlite"
	"github.com/agentstation/placemap/pkg/errors"
)

const chroniqueCSV = `id,name,pleiades,lat,lon
1,Delphi,10,38.4824,22.5009
2,Athens,,37.9000,23.7000
`

const pleiadesCSV = `id,name,lat,lon
10,Delphi,38.4826,22.5011
20,Athenai,37.9004,23.7003
30,Sparta,37.0800,22.4300
`

const configYAML = `
data_sources:
  - namespace: chronique
    format: csv
    path: chronique.csv
    title_format: "{name}"
    name_fields: [name]
    alignment_fields:
      - {field: pleiades, namespace: pleiades}
  - namespace: pleiades
    format: csv
    path: pleiades.csv
    base_uri: https://pleiades.stoa.org/places/
    title_format: "{name}"
    name_fields: [name]
alignment_modes: [assertion, proximity, toponymy]
proximity_categories:
  - {name: tight, attribute: centroid, threshold: 0.001}
`

func fixture(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"chronique.csv": chroniqueCSV,
		"pleiades.csv":  pleiadesCSV,
		"placemap.yaml": configYAML,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir, filepath.Join(dir, "placemap.yaml")
}

func mockApp(configPath string) *application.Mock {
	return &application.Mock{
		ConfigPathFunc:   func() string { return configPath },
		OutputFormatFunc: func() string { return "json" },
	}
}

func TestRun(t *testing.T) {
	_, configPath := fixture(t)

	result, err := Run(context.Background(), mockApp(configPath), &Flags{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"chronique": 2, "pleiades": 3}, result.Run.Places)
	assert.Equal(t, 2, result.Run.Alignments)
	assert.NotEmpty(t, result.Run.ID)
	assert.False(t, result.Run.FinishedAt.Before(result.Run.StartedAt))

	require.Len(t, result.Entries, 2)
	delphi := result.Entries[0]
	assert.Equal(t, []string{"chronique:1", "pleiades:10"}, delphi.AlignedIDs)
	assert.ElementsMatch(t, []string{"assertion", "proximity", "toponymy"}, delphi.Modes)
	assert.Equal(t, "tight", delphi.Proximity)
	assert.Equal(t, "https://pleiades.stoa.org/places/10", delphi.Places["pleiades"].URI)

	athens := result.Entries[1]
	assert.Equal(t, []string{"chronique:2", "pleiades:20"}, athens.AlignedIDs)
	assert.Equal(t, []string{"proximity"}, athens.Modes)
}

func TestRunLimit(t *testing.T) {
	_, configPath := fixture(t)

	result, err := Run(context.Background(), mockApp(configPath), &Flags{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
	assert.Equal(t, 2, result.Run.Alignments)
}

func TestRunPersistsAndWritesMetrics(t *testing.T) {
	dir, configPath := fixture(t)
	flags := &Flags{
		Database:    filepath.Join(dir, "runs.db"),
		MetricsFile: filepath.Join(dir, "placemap.prom"),
	}

	result, err := Run(context.Background(), mockApp(configPath), flags)
	require.NoError(t, err)

	store, err := sqlite.New(flags.Database)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run, records, err := store.LoadRun(context.Background(), result.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Alignments)
	assert.Len(t, records, 2)

	metrics, err := os.ReadFile(flags.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `placemap_alignment_registrations_total{outcome="added"} 2`)
	assert.Contains(t, string(metrics), `placemap_places_ingested{namespace="pleiades"} 3`)
}

func TestRunConfigErrors(t *testing.T) {
	_, err := Run(context.Background(), mockApp(""), &Flags{})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	dir := t.TempDir()
	path := filepath.Join(dir, "placemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_sources:
  - {namespace: chronique, format: csv, path: missing.csv}
alignment_modes: [assertion]
`), 0o600))
	_, err = Run(context.Background(), mockApp(path), &Flags{})
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestCommandWritesJSON(t *testing.T) {
	_, configPath := fixture(t)

	cmd := NewCommand(mockApp(configPath))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--limit", "1"})
	require.NoError(t, cmd.Execute())

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"chronique:1", "pleiades:10"}, entries[0]["aligned_ids"])
}

func TestCommandHelpFollowsModeOrder(t *testing.T) {
	cmd := NewCommand(mockApp(""))
	assert.Contains(t, cmd.Long, "order listed under alignment_modes")
	assert.NotContains(t, cmd.Long, "fixed order")
}
