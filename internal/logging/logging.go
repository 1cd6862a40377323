// Package logging builds the zerolog logger used across stt.
package logging

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/study-time-tracker/internal/config"
)

// New returns a logger writing to w. Format "text" selects the console
// writer, anything else JSON.
func New(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
