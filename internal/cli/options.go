package cli

import (
	"log/slog"

	"github.com/aretw0/flowkit/internal/config"
	"github.com/aretw0/flowkit/internal/logging"
)

// Options are the global CLI flags. Set values override the config file.
type Options struct {
	ConfigPath string
	Flow       string
	LogLevel   string
	Debug      bool
}

// Resolve loads the config file and applies the flag overrides.
func (o Options) Resolve() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.Flow != "" {
		cfg.Flow = o.Flow
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Debug {
		cfg.LogLevel = "debug"
	}
	if cfg.Flow == "" && cfg.Redis.FlowID == "" && cfg.Postgres.DSN == "" {
		cfg.Flow = "."
	}
	return cfg, nil
}

// NewLogger creates the stderr logger for cfg.
func NewLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
