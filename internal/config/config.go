package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the effectsync server.
type Config struct {
	// Simulation clock
	TickInterval time.Duration `yaml:"tick_interval" env:"EFFECTSYNC_TICK_INTERVAL"`

	// Scheduler cadence (ticks)
	ExpireEvery int64 `yaml:"expire_every" env:"EFFECTSYNC_EXPIRE_EVERY"`
	ResyncEvery int64 `yaml:"resync_every" env:"EFFECTSYNC_RESYNC_EVERY"`
	Workers     int   `yaml:"workers" env:"EFFECTSYNC_WORKERS"` // 0 = GOMAXPROCS

	// Broadcast radius in chunks
	ViewDistance int `yaml:"view_distance" env:"EFFECTSYNC_VIEW_DISTANCE"`

	// Frames of at least this many bytes are zlib-compressed; -1 disables compression
	CompressionThreshold int `yaml:"compression_threshold" env:"EFFECTSYNC_COMPRESSION_THRESHOLD"`

	LogLevel string `yaml:"log_level" env:"EFFECTSYNC_LOG_LEVEL"`

	Metrics Metrics `yaml:"metrics"`
	Bench   Bench   `yaml:"bench"`
}

// Metrics configures the OTLP metric exporter.
type Metrics struct {
	Enabled  bool          `yaml:"enabled" env:"EFFECTSYNC_METRICS_ENABLED"`
	Endpoint string        `yaml:"endpoint" env:"EFFECTSYNC_METRICS_ENDPOINT"` // host:port, gRPC
	Insecure bool          `yaml:"insecure" env:"EFFECTSYNC_METRICS_INSECURE"`
	Interval time.Duration `yaml:"interval" env:"EFFECTSYNC_METRICS_INTERVAL"`
}

// Bench configures the synthetic load driver.
type Bench struct {
	Entities       int           `yaml:"entities" env:"EFFECTSYNC_BENCH_ENTITIES"`
	Observers      int           `yaml:"observers" env:"EFFECTSYNC_BENCH_OBSERVERS"`
	EffectsPerTick int           `yaml:"effects_per_tick" env:"EFFECTSYNC_BENCH_EFFECTS_PER_TICK"`
	Duration       time.Duration `yaml:"duration" env:"EFFECTSYNC_BENCH_DURATION"` // 0 = until signal
	Seed           int64         `yaml:"seed" env:"EFFECTSYNC_BENCH_SEED"`
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		TickInterval: 50 * time.Millisecond,
		ExpireEvery:  5,
		ResyncEvery:  600,
		Workers:      0,
		ViewDistance: 8,

		CompressionThreshold: 256,

		LogLevel: "info",
		Metrics: Metrics{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Insecure: true,
			Interval: 15 * time.Second,
		},
		Bench: Bench{
			Entities:       1000,
			Observers:      50,
			EffectsPerTick: 20,
			Duration:       0,
			Seed:           1,
		},
	}
}

// Load loads config from a YAML file, then applies environment overrides.
// If the file doesn't exist, defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.ExpireEvery <= 0 {
		errs = append(errs, fmt.Errorf("expire_every must be positive, got %d", c.ExpireEvery))
	}
	if c.ResyncEvery <= 0 {
		errs = append(errs, fmt.Errorf("resync_every must be positive, got %d", c.ResyncEvery))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.ViewDistance <= 0 {
		errs = append(errs, fmt.Errorf("view_distance must be positive, got %d", c.ViewDistance))
	}
	if c.CompressionThreshold < -1 {
		errs = append(errs, fmt.Errorf("compression_threshold must be -1 or more, got %d", c.CompressionThreshold))
	}
	if c.Metrics.Enabled {
		if c.Metrics.Endpoint == "" {
			errs = append(errs, errors.New("metrics.endpoint is required when metrics are enabled"))
		}
		if c.Metrics.Interval <= 0 {
			errs = append(errs, fmt.Errorf("metrics.interval must be positive, got %s", c.Metrics.Interval))
		}
	}
	if c.Bench.Entities < 0 || c.Bench.Observers < 0 || c.Bench.EffectsPerTick < 0 {
		errs = append(errs, errors.New("bench counts must not be negative"))
	}
	if c.Bench.Duration < 0 {
		errs = append(errs, fmt.Errorf("bench.duration must not be negative, got %s", c.Bench.Duration))
	}
	return errors.Join(errs...)
}
