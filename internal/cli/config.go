package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Config is read from the environment; flags given on the command line take
// precedence.
type Config struct {
	Schema   string     `env:"TABLECTL_SCHEMA"`
	LogLevel slog.Level `env:"TABLECTL_LOG_LEVEL" envDefault:"info"`
	Verbose  bool       `env:"TABLECTL_VERBOSE"`
	NoColor  bool       `env:"TABLECTL_NO_COLOR"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// newLogger writes colored records to a terminal and plain ones elsewhere.
func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	level := cfg.LogLevel
	if cfg.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	noColor := cfg.NoColor
	if f, ok := w.(*os.File); ok {
		noColor = noColor || !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	} else {
		noColor = true
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}
