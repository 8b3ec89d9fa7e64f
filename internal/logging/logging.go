// Package logging configures the process-wide slog logger.
//
// pjforge logs a colorized informational line before each pipeline stage
// and debug detail under --verbose. Output goes to stderr so stdout stays
// reserved for command results (tables, JSON).
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs a tint handler as the default slog logger and returns it.
// verbose lowers the level to Debug.
func Setup(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		// Drop empty string attributes so optional details (skip reasons,
		// stderr tails) disappear instead of rendering as key="".
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
	return logger
}
