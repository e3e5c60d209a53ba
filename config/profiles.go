package config

import (
	"fmt"
	"time"
)

// LoadProfile returns a configuration preset for a named deployment
// profile, with environment variables layered on top. Profiles only
// adjust the knobs that genuinely differ between environments; everything
// else keeps the defaults.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Logging.Level = "warn"
		cfg.Server.ShutdownTimeout = 5 * time.Second
	case "staging":
		cfg.Environment = EnvStaging
		cfg.Metrics.Enabled = true
	case "production":
		cfg.Environment = EnvProduction
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
