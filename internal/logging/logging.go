// Package logging builds the zerolog logger used across the client.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/config"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// New returns a logger writing to w with the level implied by cfg.Env
// (dev: debug, prod: info, local: trace with console output). A
// non-empty cfg.Log.Level overrides it.
func New(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	switch cfg.Env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level = zerolog.TraceLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = w
		consoleWriter.NoColor = w != os.Stderr && w != os.Stdout
		w = consoleWriter
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", cfg.Env)
	}

	if cfg.Log.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger(), nil
}

// Open returns a logger for cfg. Output goes to cfg.Log.File when set,
// otherwise to fallback; a nil fallback discards everything. The returned
// closer must be called on exit.
func Open(cfg *config.Config, fallback io.Writer) (zerolog.Logger, io.Closer, error) {
	if cfg.Log.File == "" {
		if fallback == nil {
			return zerolog.Nop(), io.NopCloser(nil), nil
		}
		logger, err := New(cfg, fallback)
		return logger, io.NopCloser(nil), err
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(cfg, f)
	if err != nil {
		f.Close()
		return zerolog.Nop(), nil, err
	}
	return logger, f, nil
}
