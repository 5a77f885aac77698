// Package config loads crysfetch configuration: built-in defaults, then the
// YAML config file, then CRYSFETCH_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when no explicit config path is given. A missing
// file there is fine; an explicitly named file must exist.
const DefaultPath = "config.yaml"

type Config struct {
	Paths            PathsConfig            `yaml:"paths"`
	MaterialsProject MaterialsProjectConfig `yaml:"materials_project"`
	ML               MLConfig               `yaml:"ml"`
	LogLevel         string                 `yaml:"log_level"`
	Formulas         []string               `yaml:"formulas"`
}

type PathsConfig struct {
	Raw       string `yaml:"raw"`
	Processed string `yaml:"processed"`
	Features  string `yaml:"features"`
	Models    string `yaml:"models"`
}

type MaterialsProjectConfig struct {
	// APIKey may reference an environment variable, e.g. ${MP_API_KEY}.
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	BatchSize     int     `yaml:"batch_size"`
	RequestDelay  string  `yaml:"request_delay"`
	MaxRetries    int     `yaml:"max_retries"`
	BackoffFactor float64 `yaml:"backoff_factor"`
	Timeout       string  `yaml:"timeout"`
	StructureDir  string  `yaml:"structure_dir"`
}

type MLConfig struct {
	TestSize    float64 `yaml:"test_size"`
	RandomState int     `yaml:"random_state"`
	NEstimators int     `yaml:"n_estimators"`
}

func defaults() Config {
	return Config{
		Paths: PathsConfig{
			Raw:       "data/raw",
			Processed: "data/processed",
			Features:  "data/features",
			Models:    "models",
		},
		MaterialsProject: MaterialsProjectConfig{
			BaseURL:       "https://api.materialsproject.org",
			BatchSize:     5,
			RequestDelay:  "10s",
			MaxRetries:    5,
			BackoffFactor: 2,
			Timeout:       "30s",
			StructureDir:  "data/structures",
		},
		ML: MLConfig{
			TestSize:    0.2,
			RandomState: 42,
			NEstimators: 300,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the YAML file at path (DefaultPath when
// empty), expands the API key reference, and applies environment overrides.
//
// Environment variables (CRYSFETCH_*) override file values.
func Load(path string) (Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults apply.
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg.MaterialsProject.APIKey = os.ExpandEnv(cfg.MaterialsProject.APIKey)
	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	mp := c.MaterialsProject
	if mp.BatchSize <= 0 {
		return fmt.Errorf("invalid config: materials_project.batch_size must be positive, got %d", mp.BatchSize)
	}
	if mp.MaxRetries <= 0 {
		return fmt.Errorf("invalid config: materials_project.max_retries must be positive, got %d", mp.MaxRetries)
	}
	if mp.BackoffFactor <= 0 {
		return fmt.Errorf("invalid config: materials_project.backoff_factor must be positive, got %g", mp.BackoffFactor)
	}
	return nil
}

// RequireAPIKey fails fast when no API key is configured. Commands that
// never talk to the database skip this check.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.MaterialsProject.APIKey) != "" {
		return nil
	}
	msg := "missing required config: Materials Project API key. " +
		"Set it via environment variable CRYSFETCH_MP_API_KEY " +
		"or materials_project.api_key in config.yaml"
	return errors.New(msg)
}
