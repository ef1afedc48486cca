package fraktor

import (
	"log/slog"
	"os"
)

// NewTextLogger builds a slog.Logger writing human-readable lines to os.Stdout
// at the given level. NewActorSystem falls back to slog.Default(), not to
// this, when given a nil logger.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger builds a slog.Logger writing structured JSON lines, useful
// when fraktor runs under a log aggregator.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
