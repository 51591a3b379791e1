package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/placemap/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. PLACEMAP_WORKERS.
const EnvPrefix = "PLACEMAP"

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("alignment_modes", []string{"assertion", "proximity", "toponymy", "typology"})
	v.SetDefault("boost_modes", []string{"assertion", "proximity"})
	v.SetDefault("workers", 0) // 0 means GOMAXPROCS
	v.SetDefault("report.sort", []map[string]any{{"field": "aligned_ids", "order": "forward"}})
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads and validates the configuration file at path. Relative data
// source paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.NewConfigError("config", "no configuration file given", nil)
	}
	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError("config", fmt.Sprintf("failed to read %s", path), err)
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// LoadWithViper decodes and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError("config", "failed to decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for i := range c.DataSources {
		if p := c.DataSources[i].Path; p != "" && !filepath.IsAbs(p) {
			c.DataSources[i].Path = filepath.Join(dir, p)
		}
	}
}
