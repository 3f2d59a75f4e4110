// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability turns search events into structured log lines and
// Prometheus metrics.
package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// DefaultLogFile is where the CLI tees log output unless configured otherwise.
const DefaultLogFile = "logs/paper-finder.log"

// NewLogger builds a zerolog logger from cfg. When cfg.File is set, every
// line is also appended to that file as JSON; the returned closer releases
// it. The closer is never nil.
func NewLogger(cfg types.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	if strings.ToLower(cfg.Output) == "stdout" {
		out = os.Stdout
	}

	if cfg.File == "" {
		return newLogger(out, nil, cfg), nopCloser{}, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("opening log file: %w", err)
	}
	return newLogger(out, f, cfg), f, nil
}

// newLogger writes to out in cfg.Format and, when file is non-nil, to file
// as JSON.
func newLogger(out io.Writer, file io.Writer, cfg types.LoggingConfig) zerolog.Logger {
	format := strings.ToLower(cfg.Format)
	if format == "console" || format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	if file != nil {
		out = zerolog.MultiLevelWriter(out, file)
	}
	return zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel converts a level name to a zerolog.Level, defaulting to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithSearchContext tags a logger with the run ID and query.
func WithSearchContext(logger zerolog.Logger, runID, query string) zerolog.Logger {
	return logger.With().
		Str("run_id", runID).
		Str("query", query).
		Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
