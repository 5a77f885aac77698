package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "paths.raw", typ: kString,
		apply:   func(cfg *Config, v any) { cfg.Paths.Raw = v.(string) },
		extract: func(cfg Config) any { return cfg.Paths.Raw },
	},
	{
		key: "paths.processed", typ: kString,
		apply:   func(cfg *Config, v any) { cfg.Paths.Processed = v.(string) },
		extract: func(cfg Config) any { return cfg.Paths.Processed },
	},
	{
		key: "paths.features", typ: kString,
		apply:   func(cfg *Config, v any) { cfg.Paths.Features = v.(string) },
		extract: func(cfg Config) any { return cfg.Paths.Features },
	},
	{
		key: "paths.models", typ: kString,
		apply:   func(cfg *Config, v any) { cfg.Paths.Models = v.(string) },
		extract: func(cfg Config) any { return cfg.Paths.Models },
	},
	{
		key: "materials_project.api_key", typ: kString, env: "CRYSFETCH_MP_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.APIKey },
	},
	{
		key: "materials_project.base_url", typ: kString, env: "CRYSFETCH_MP_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.BaseURL },
	},
	{
		key: "materials_project.batch_size", typ: kInt, env: "CRYSFETCH_MP_BATCH_SIZE",
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.BatchSize = v.(int) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.BatchSize },
	},
	{
		key: "materials_project.request_delay", typ: kString,
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.RequestDelay = v.(string) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.RequestDelay },
	},
	{
		key: "materials_project.max_retries", typ: kInt,
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.MaxRetries = v.(int) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.MaxRetries },
	},
	{
		key: "materials_project.backoff_factor", typ: kFloat,
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.BackoffFactor = v.(float64) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.BackoffFactor },
	},
	{
		key: "materials_project.timeout", typ: kString,
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.Timeout },
	},
	{
		key: "materials_project.structure_dir", typ: kString, env: "CRYSFETCH_STRUCTURE_DIR",
		apply:   func(cfg *Config, v any) { cfg.MaterialsProject.StructureDir = v.(string) },
		extract: func(cfg Config) any { return cfg.MaterialsProject.StructureDir },
	},
	{
		key: "ml.test_size", typ: kFloat,
		apply:   func(cfg *Config, v any) { cfg.ML.TestSize = v.(float64) },
		extract: func(cfg Config) any { return cfg.ML.TestSize },
	},
	{
		key: "ml.random_state", typ: kInt,
		apply:   func(cfg *Config, v any) { cfg.ML.RandomState = v.(int) },
		extract: func(cfg Config) any { return cfg.ML.RandomState },
	},
	{
		key: "ml.n_estimators", typ: kInt,
		apply:   func(cfg *Config, v any) { cfg.ML.NEstimators = v.(int) },
		extract: func(cfg Config) any { return cfg.ML.NEstimators },
	},
	{
		key: "log_level", typ: kString, env: "CRYSFETCH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.LogLevel = v.(string) },
		extract: func(cfg Config) any { return cfg.LogLevel },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

// KV is one configuration key and its display value.
type KV struct {
	Key   string
	Value string
}

// ShowAll renders every known key for display, secrets redacted.
func ShowAll(cfg Config) []KV {
	out := make([]KV, 0, len(specs))
	for _, s := range specs {
		val := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			val = redactSecret(val)
		}
		out = append(out, KV{Key: s.key, Value: val})
	}
	return out
}

func redactSecret(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 6 {
		return "******"
	}
	return v[:3] + "..." + v[len(v)-3:]
}
