package app

import (
	"errors"
	"log/slog"
	"os"
)

// Context is handed to initializers and route builders. It is read-only
// after NewContext.
type Context struct {
	Config *Config
	Logger *slog.Logger
}

// NewContext builds the application context for cfg, logging to stderr.
func NewContext(cfg *Config) (*Context, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	return &Context{Config: cfg, Logger: cfg.Logger.NewLogger(os.Stderr)}, nil
}
