package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/constellation-propagator/core"
)

// Defaults for the headless simulator run. Engine defaults (timestep,
// threshold, satellite bounds) live in the core package; these cover
// the CLI-only knobs.
const (
	DefaultSatellites      = 1000
	DefaultDurationSeconds = 3600.0
	DefaultMetricsAddr     = ":9090"
)

// Config is the YAML-file configuration for cmd/simulator. Flags
// override individual fields after loading.
type Config struct {
	Satellites               int     `yaml:"satellites"`
	TimestepSeconds          float64 `yaml:"timestep_seconds"`
	ProximityThresholdMeters float64 `yaml:"proximity_threshold_meters"`
	Distribution             string  `yaml:"distribution"` // shell | ring
	Seed                     int64   `yaml:"seed"`
	Workers                  int     `yaml:"workers"`
	TLEFile                  string  `yaml:"tle_file"`
	DurationSeconds          float64 `yaml:"duration_seconds"`
	Accelerated              bool    `yaml:"accelerated"`
	MetricsAddr              string  `yaml:"metrics_addr"`
}

// Default returns a configuration that validates and runs a dense LEO
// shell for one simulated hour.
func Default() *Config {
	return &Config{
		Satellites:               DefaultSatellites,
		TimestepSeconds:          core.DefaultTimestepSeconds,
		ProximityThresholdMeters: core.DefaultProximityThreshold,
		Distribution:             "shell",
		DurationSeconds:          DefaultDurationSeconds,
		Accelerated:              true,
		MetricsAddr:              DefaultMetricsAddr,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects out-of-range values. The engine re-validates its own
// parameters at construction; this catches CLI-level mistakes early
// with friendlier messages.
func (c *Config) Validate() error {
	if c.Satellites < 1 || c.Satellites > core.MaxSatellites {
		return fmt.Errorf("satellites %d outside [1, %d]", c.Satellites, core.MaxSatellites)
	}
	if c.TimestepSeconds <= 0 {
		return fmt.Errorf("timestep_seconds %v must be positive", c.TimestepSeconds)
	}
	if c.ProximityThresholdMeters <= 0 {
		return fmt.Errorf("proximity_threshold_meters %v must be positive", c.ProximityThresholdMeters)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must not be negative", c.Workers)
	}
	if c.DurationSeconds <= 0 {
		return fmt.Errorf("duration_seconds %v must be positive", c.DurationSeconds)
	}
	if _, err := c.ParseDistribution(); err != nil {
		return err
	}
	return nil
}

// ParseDistribution maps the distribution name onto the core type.
func (c *Config) ParseDistribution() (core.Distribution, error) {
	switch c.Distribution {
	case "", "shell":
		return core.DistributionShell, nil
	case "ring":
		return core.DistributionRing, nil
	default:
		return 0, fmt.Errorf("unknown distribution %q (want shell or ring)", c.Distribution)
	}
}

// Frames returns how many steps cover the configured duration.
func (c *Config) Frames() int {
	return int(c.DurationSeconds / c.TimestepSeconds)
}
