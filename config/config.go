package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-level settings that are not worth a CLI flag.
type Config struct {
	FFmpegPath  string `env:"VCOLOR_FFMPEG"  envDefault:"ffmpeg"`
	FFprobePath string `env:"VCOLOR_FFPROBE" envDefault:"ffprobe"`

	// WorkerCommand is the inference worker that hosts the colorization models.
	WorkerCommand string   `env:"VCOLOR_WORKER"      envDefault:"vcolor-worker"`
	WorkerArgs    []string `env:"VCOLOR_WORKER_ARGS" envSeparator:" "`

	WorkDir  string `env:"VCOLOR_WORK_DIR"  envDefault:"."`
	LogLevel string `env:"VCOLOR_LOG_LEVEL" envDefault:"info"`

	// AssembleTick paces the synthetic progress shown while frames are encoded.
	AssembleTick time.Duration `env:"VCOLOR_ASSEMBLE_TICK" envDefault:"10ms"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads the configuration from the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FFmpegPath) == "" {
		return fmt.Errorf("VCOLOR_FFMPEG must not be empty")
	}
	if strings.TrimSpace(c.FFprobePath) == "" {
		return fmt.Errorf("VCOLOR_FFPROBE must not be empty")
	}
	if strings.TrimSpace(c.WorkerCommand) == "" {
		return fmt.Errorf("VCOLOR_WORKER must not be empty")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("VCOLOR_WORK_DIR must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", c.LogLevel)
	}
	if c.AssembleTick <= 0 {
		return fmt.Errorf("VCOLOR_ASSEMBLE_TICK must be positive, got %s", c.AssembleTick)
	}
	return nil
}
