// Package config loads stash settings. Sources in increasing precedence:
// defaults, the YAML config file, environment variables, command-line flags
// (applied by the CLI).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/and161185/stash/internal/annotate"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"` // file path for sqlite, connection string for postgres
}

type AnnotatorConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	FetchPage    bool          `yaml:"fetch_page"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxPageBytes int64         `yaml:"max_page_bytes"`
	ExcerptChars int           `yaml:"excerpt_chars"`
}

// Config is the complete CLI configuration.
type Config struct {
	Store           StoreConfig     `yaml:"store"`
	Annotator       AnnotatorConfig `yaml:"annotator"`
	SimulateLatency bool            `yaml:"simulate_latency"`
}

// Dir returns the stash configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "stash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stash")
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    filepath.Join(Dir(), "stash.db"),
		},
		Annotator: AnnotatorConfig{
			BaseURL:      annotate.DefaultBaseURL,
			Model:        annotate.DefaultModel,
			Temperature:  annotate.DefaultTemperature,
			Timeout:      annotate.DefaultTimeout,
			FetchPage:    true,
			FetchTimeout: annotate.DefaultFetchTimeout,
			MaxPageBytes: annotate.DefaultMaxPageBytes,
			ExcerptChars: annotate.DefaultExcerpt,
		},
		SimulateLatency: true,
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STASH_API_KEY"); v != "" {
		cfg.Annotator.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		cfg.Annotator.APIKey = v
	}
	if v := os.Getenv("STASH_BASE_URL"); v != "" {
		cfg.Annotator.BaseURL = v
	}
	if v := os.Getenv("STASH_MODEL"); v != "" {
		cfg.Annotator.Model = v
	}
	if v := os.Getenv("STASH_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("STASH_DSN"); v != "" {
		cfg.Store.DSN = v
	}
}

// Validate checks settings that do not depend on the command being run.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store %s requires a dsn", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Annotator.Temperature < 0 || c.Annotator.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0,2]", c.Annotator.Temperature)
	}
	return nil
}

// AnnotateConfig converts the annotator section for annotate.New.
func (c *Config) AnnotateConfig() annotate.Config {
	excerpt := c.Annotator.ExcerptChars
	if !c.Annotator.FetchPage {
		excerpt = 0
	}
	return annotate.Config{
		APIKey:       c.Annotator.APIKey,
		BaseURL:      c.Annotator.BaseURL,
		Model:        c.Annotator.Model,
		Temperature:  c.Annotator.Temperature,
		Timeout:      c.Annotator.Timeout,
		ExcerptChars: excerpt,
	}
}
