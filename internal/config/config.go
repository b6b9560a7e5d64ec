// Package config loads the delayctl profile.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jzx17/delaykit/pkg/delay"
	"github.com/jzx17/delaykit/pkg/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the profile used when no --config flag is given
const EnvConfigPath = "DELAYCTL_CONFIG"

// Config holds the delayctl profile
type Config struct {
	Delay   DelayConfig   `yaml:"delay"`
	Logging LoggingConfig `yaml:"logging"`
}

// DelayConfig holds the options applied to every delay the CLI starts
type DelayConfig struct {
	ProgressInterval time.Duration `yaml:"progress_interval"` // 0 disables progress output
	Multiplier       float64       `yaml:"multiplier"`
	MaxDelay         time.Duration `yaml:"max_delay"` // 0 means uncapped
	CancelReason     string        `yaml:"cancel_reason"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Load reads the profile at path, falling back to $DELAYCTL_CONFIG.
// With neither set the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Delay: DelayConfig{
			ProgressInterval: 500 * time.Millisecond,
			Multiplier:       delay.DefaultMultiplier,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("DELAYCTL_PROGRESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DELAYCTL_PROGRESS_INTERVAL: %w", err)
		}
		c.Delay.ProgressInterval = d
	}
	if v := os.Getenv("DELAYCTL_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DELAYCTL_MULTIPLIER: %w", err)
		}
		c.Delay.Multiplier = f
	}
	if v := os.Getenv("DELAYCTL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Delay.Multiplier <= 0 {
		return fmt.Errorf("multiplier must be positive, got %v: %w", c.Delay.Multiplier, types.ErrInvalidInput)
	}
	if c.Delay.MaxDelay < 0 {
		return fmt.Errorf("max_delay must not be negative, got %v: %w", c.Delay.MaxDelay, types.ErrInvalidInput)
	}
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q: %w", c.Logging.Format, types.ErrInvalidInput)
	}
	return nil
}

// Options converts the profile into delay options. Progress reporting is
// left to the caller, which owns the output, and options applied after these
// override them.
func (d DelayConfig) Options() []delay.Option {
	cfg := delay.DefaultConfig()
	cfg.ProgressInterval = d.ProgressInterval
	cfg.BackoffMultiplier = d.Multiplier
	cfg.MaxDelay = d.MaxDelay
	cfg.CancelReason = d.CancelReason
	return []delay.Option{delay.WithConfig(cfg)}
}

// NewLogger builds the zap logger described by the profile; verbose forces
// debug level with the development encoder.
func (l LoggingConfig) NewLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Format == "console" {
		zc.Encoding = "console"
	}
	if verbose {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
