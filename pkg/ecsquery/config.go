package ecsquery

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DefaultDirtyThreshold is the number of distinct pending entities a query patches incrementally
// before it falls back to a full rebuild.
const DefaultDirtyThreshold = 100

// RegistryConfig holds the registry settings that can be set through environment variables.
type RegistryConfig struct {
	// Distinct dirty entities a query tolerates before escalating to a full rebuild.
	DirtyThreshold int `env:"ECSQUERY_DIRTY_THRESHOLD" envDefault:"100"`

	// Minimum level of query logs (trace, debug, info, warn, error, disabled).
	LogLevel string `env:"ECSQUERY_LOG_LEVEL" envDefault:"info"`
}

// LoadRegistryConfig loads the registry configuration from environment variables.
func LoadRegistryConfig() (RegistryConfig, error) {
	cfg := RegistryConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse registry config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

func (cfg *RegistryConfig) validate() error {
	if cfg.DirtyThreshold < 0 {
		return eris.Errorf("dirty threshold must not be negative, got %d", cfg.DirtyThreshold)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	return nil
}

// Level returns the parsed log level. Call it on a validated config.
func (cfg *RegistryConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// ApplyToOptions copies the configuration values into the given options.
func (cfg *RegistryConfig) ApplyToOptions(opt *RegistryOptions) {
	opt.DirtyThreshold = cfg.DirtyThreshold
}

// RegistryOptions configures a Registry and the queries it creates.
type RegistryOptions struct {
	DirtyThreshold int             // Distinct dirty entities before a full rebuild, 0 means default
	Logger         *zerolog.Logger // Logger for query lifecycle events, nil means no logging
}

// newDefaultRegistryOptions creates RegistryOptions with default values.
func newDefaultRegistryOptions() RegistryOptions {
	nop := zerolog.Nop()
	return RegistryOptions{
		DirtyThreshold: DefaultDirtyThreshold,
		Logger:         &nop,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *RegistryOptions) apply(newOpt RegistryOptions) {
	if newOpt.DirtyThreshold != 0 {
		opt.DirtyThreshold = newOpt.DirtyThreshold
	}
	if newOpt.Logger != nil {
		opt.Logger = newOpt.Logger
	}
}

// validate checks that all options are set and valid.
func (opt *RegistryOptions) validate() error {
	if opt.DirtyThreshold <= 0 {
		return eris.Errorf("dirty threshold must be positive, got %d", opt.DirtyThreshold)
	}
	if opt.Logger == nil {
		return eris.New("logger cannot be nil")
	}
	return nil
}
