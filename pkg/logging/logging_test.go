package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestParseFields(t *testing.T) {
	fields := parseFields("service=placemap, env = test,broken")
	assert.Equal(t, map[string]string{"service": "placemap", "env": "test"}, fields)
	assert.Empty(t, parseFields(""))
}

func TestParseTimeFormat(t *testing.T) {
	assert.Equal(t, "", parseTimeFormat("unix"))
	assert.Equal(t, "2006-01-02", parseTimeFormat("2006-01-02"))
	assert.NotEmpty(t, parseTimeFormat("whatever"))
}

func TestContextLogger(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithRunID(ctx, "run-1")
	ctx = WithStrategy(ctx, "proximity")
	ctx = WithNamespace(ctx, "manto")

	FromContext(ctx).Info().Int("cells", 3).Msg("scanned")

	require.Len(t, tl.Events(), 1)
	assert.True(t, tl.Contains(`"run_id":"run-1"`))
	assert.True(t, tl.Contains(`"strategy":"proximity"`))
	assert.True(t, tl.Contains(`"namespace":"manto"`))
	assert.True(t, tl.Contains(`"cells":3`))
	assert.Equal(t, "run-1", RunID(ctx))
}

func TestFromContextDefaults(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, Default(), FromContext(nil))
	assert.Same(t, Default(), FromContext(context.Background()))
	assert.Equal(t, "", RunID(context.Background()))
}

func TestNewLoggerFromConfigDiscard(t *testing.T) {
	logger := NewLoggerFromConfig(&Config{
		Level:  "warn",
		Output: "discard",
		Format: "json",
		Fields: map[string]string{"app": "placemap"},
	})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestNewLoggerFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placemap.log")
	logger := NewLoggerFromConfig(&Config{
		Level:  "info",
		Output: path,
		Format: "auto",
		Fields: map[string]string{"host": "a1"},
	})
	logger.Info().Msg("written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"host":"a1"`)
	assert.Contains(t, string(data), `"message":"written"`)
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_OUTPUT", "discard")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_FIELDS", "app=placemap, host = a1")

	cfg := DefaultConfig()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "discard", cfg.Output)
	assert.Equal(t, "auto", cfg.Format)
	assert.True(t, cfg.AddCaller)
	assert.Equal(t, map[string]string{"app": "placemap", "host": "a1"}, cfg.Fields)
}
