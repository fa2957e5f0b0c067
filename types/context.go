package types

import (
	"log/slog"

	"github.com/lepinkainen/vcolor/config"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version string
	Logger  *slog.Logger
	Config  *config.Config
}

// Log returns the configured logger, or slog's default when none was set.
func (a *AppContext) Log() *slog.Logger {
	if a == nil || a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// Settings returns the loaded configuration, reading the environment when
// none was attached.
func (a *AppContext) Settings() (*config.Config, error) {
	if a != nil && a.Config != nil {
		return a.Config, nil
	}
	return config.Load()
}
