// Package config loads the service configuration from a YAML or JSON file
// with environment overrides. Variables prefixed with K_ override file
// values; a double underscore separates nesting levels, so
// K_ENGINE__SOLVER__MAX_ITERATIONS sets engine.solver.max_iterations.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/infra/logger"
	"github.com/kilianp07/compstation/infra/mqtt"
	"github.com/kilianp07/compstation/internal/batch"
)

type Config struct {
	// StationFile is the GasLib compressor stations file (.cs) to load.
	StationFile string         `json:"station_file"`
	Engine      EngineConfig   `json:"engine"`
	Batch       batch.Config   `json:"batch"`
	MQTT        mqtt.Config    `json:"mqtt"`
	Metrics     metrics.Config `json:"metrics"`
	Logging     logger.Options `json:"logging"`
	Archive     evallog.Config `json:"archive"`
	Sentry      SentryConfig   `json:"sentry"`
	API         APIConfig      `json:"api"`
}

// SetDefaults fills every section's unset fields.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Batch.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
	c.Archive.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.StationFile == "" {
		return fmt.Errorf("station_file is required")
	}
	checks := []struct {
		name string
		fn   func() error
	}{
		{"engine", c.Engine.Validate},
		{"batch", c.Batch.Validate},
		{"mqtt", c.MQTT.Validate},
		{"metrics", c.Metrics.Validate},
		{"logging", c.Logging.Validate},
		{"archive", c.Archive.Validate},
		{"sentry", c.Sentry.Validate},
		{"api", c.API.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}

// Load reads the file at path, applies environment overrides and defaults
// and validates the result. Relative station files resolve against the
// directory of path.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if cfg.StationFile != "" && !filepath.IsAbs(cfg.StationFile) {
		cfg.StationFile = filepath.Join(filepath.Dir(path), cfg.StationFile)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
