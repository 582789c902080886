package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/thrash-lab/viability-test/internal/dte"
	"github.com/thrash-lab/viability-test/internal/util"
)

// Defaults.
const (
	DefaultBootstraps = dte.DefaultExperiments
	DefaultThreads    = -1
	DefaultLogLevel   = "warn"
	FileName          = "config.yaml"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds run configuration. Later layers override earlier ones: the
// defaults, an optional YAML file, VIABILITY_* environment variables, then
// command-line flags.
type Config struct {
	Bootstraps int    `yaml:"n_bootstraps" envconfig:"N_BOOTSTRAPS"`
	Threads    int    `yaml:"threads" envconfig:"THREADS"` // -1 uses every CPU
	Seed       uint64 `yaml:"seed" envconfig:"SEED"`       // 0 draws a fresh seed
	LogLevel   string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Overrides carries flag values the user set explicitly.
type Overrides struct {
	Bootstraps *int
	Threads    *int
	Seed       *uint64
	LogLevel   *string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bootstraps: DefaultBootstraps,
		Threads:    DefaultThreads,
		LogLevel:   DefaultLogLevel,
	}
}

// DefaultPath returns the config file looked up when no path is given.
func DefaultPath() (string, error) {
	dir, err := util.GetXDGConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load builds the configuration. An empty path reads the default file if it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := envconfig.Process("VIABILITY", cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Apply sets every non-nil override.
func (c *Config) Apply(o Overrides) {
	if o.Bootstraps != nil {
		c.Bootstraps = *o.Bootstraps
	}
	if o.Threads != nil {
		c.Threads = *o.Threads
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
}

// Validate checks the bootstrap count and thread setting.
func (c *Config) Validate() error {
	if c.Bootstraps <= 0 {
		return fmt.Errorf("%w: n_bootstraps must be positive, got %d", ErrInvalid, c.Bootstraps)
	}
	if c.Threads == 0 || c.Threads < -1 {
		return fmt.Errorf("%w: threads must be -1 or positive, got %d", ErrInvalid, c.Threads)
	}
	return nil
}

// Workers resolves the thread setting to a worker count.
func (c *Config) Workers() int {
	if c.Threads <= 0 {
		return runtime.NumCPU()
	}
	return c.Threads
}
