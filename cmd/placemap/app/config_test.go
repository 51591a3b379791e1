package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PLACEMAP_CONFIG", "")
	t.Setenv("PLACEMAP_DB", "")
	t.Setenv("LOG_FORMAT", "")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigFile, config.ConfigFile)
	assert.Empty(t, config.Database)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Equal(t, "stderr", config.LogOutput)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("PLACEMAP_CONFIG", "/etc/placemap.yaml")
	t.Setenv("PLACEMAP_DB", "/var/lib/placemap/runs.db")
	t.Setenv("PLACEMAP_FORMAT", "yaml")
	t.Setenv("PLACEMAP_VERBOSE", "true")
	t.Setenv("LOG_LEVEL", "error")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/etc/placemap.yaml", config.ConfigFile)
	assert.Equal(t, "/var/lib/placemap/runs.db", config.Database)
	assert.Equal(t, "yaml", config.Format)
	assert.True(t, config.Verbose)
	assert.Equal(t, "error", config.LogLevel)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "error"}

	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "yaml", config.Format, "empty flag keeps the loaded value")
	assert.Equal(t, "error", config.LogLevel)

	config.UpdateFromFlags(false, true, false, "json", "debug")
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.NoColor, "NO_COLOR stays in effect")
}
