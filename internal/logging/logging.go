package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls the relay's single process-wide logger. Unlike a
// clustered service, foxdns has no node identity or cluster-wide field
// set to stamp onto every line — a query's instance_id, client address,
// and domain are already attached per-call (see relay.Dispatcher), so
// Config carries only what actually varies across a run: verbosity and
// wire format.
type Config struct {
	Level            string
	Structured       bool
	StructuredFormat string
}

// Configure builds the relay's logger and installs it as slog's default,
// so the CLI's -d/-dd flags (mapped to Level by the caller) govern every
// package that falls back to slog.Default() rather than carrying its own
// logger reference.
func Configure(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)
	out := io.Writer(os.Stderr)

	var handler slog.Handler
	if cfg.Structured && strings.ToLower(cfg.StructuredFormat) == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
