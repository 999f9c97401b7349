// Package log configures the process-wide slog logger used by the
// containerflow binaries and hands out module-scoped child loggers.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default logger at the given level. Level names are
// case-insensitive; unknown names fall back to info.
func Setup(logLevel string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// WithModule returns a child of the default logger tagged with the
// component name, e.g. "api" or "scheduler".
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
