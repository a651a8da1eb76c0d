// Package config loads the run configuration from a yaml or json file with
// HEMS_ prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/profile"
	"github.com/kilianp07/hems/core/system"
	"github.com/kilianp07/hems/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore, e.g. HEMS_SYSTEM__BATTERY__CAPACITY_NOMINAL.
const EnvPrefix = "HEMS_"

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Profiles   ProfilesConfig   `json:"profiles"`
	System     system.Config    `json:"system"`
	Output     OutputConfig     `json:"output"`
	Metrics    metrics.Config   `json:"metrics"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Sentry     SentryConfig     `json:"sentry"`
	Log        LogConfig        `json:"log"`
}

// SimulationConfig sets the horizon and the dispatch mode of a run.
type SimulationConfig struct {
	// Mode is myopic or replay.
	Mode     string        `json:"mode"`
	Timestep time.Duration `json:"timestep"`
	Steps    int           `json:"steps"`
	Start    time.Time     `json:"start"`
	// Plan is the precomputed dispatch replayed in replay mode.
	Plan  string `json:"plan"`
	RunID string `json:"run_id"`
}

// ProfilesConfig points at the upstream time series.
type ProfilesConfig struct {
	Path            string `json:"path"`
	profile.Options `json:",squash"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			Mode:     string(system.ModeMyopic),
			Timestep: 15 * time.Minute,
			Steps:    96,
		},
		System: system.DefaultConfig(),
		Output: OutputConfig{Format: "csv"},
		MQTT:   mqtt.Config{TopicPrefix: "hems", MaxRetries: 3, BackoffMS: 100},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path, applies environment overrides and decodes the result
// strictly over Default. Unknown keys are rejected.
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
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToTimeHookFunc(time.RFC3339),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true,
			ZeroFields:       true,
			WeaklyTypedInput: true,
			TagName:          "json",
			Result:           &cfg,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and reports all failures together.
func (c Config) Validate() error {
	return errors.Join(
		c.Simulation.Validate(),
		c.Output.Validate(),
		c.Log.Validate(),
	)
}

// Validate checks the horizon and the mode.
func (c SimulationConfig) Validate() error {
	mode, err := system.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	switch {
	case c.Timestep <= 0:
		return fmt.Errorf("simulation.timestep must be positive, got %s", c.Timestep)
	case c.Steps <= 0:
		return fmt.Errorf("simulation.steps must be positive, got %d", c.Steps)
	case mode == system.ModeReplay && c.Plan == "":
		return fmt.Errorf("simulation.plan is required in replay mode")
	}
	return nil
}
