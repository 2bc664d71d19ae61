// Package logger wraps zerolog with a process-wide logger and
// context-scoped children.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var global = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the global logger. format is "json" or "console";
// unknown levels fall back to info.
func Init(level, format string) zerolog.Logger {
	global = New(os.Stderr, level, format)
	return global
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "console") || strings.EqualFold(format, "text") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Global returns the process-wide logger.
func Global() zerolog.Logger { return global }

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &global
	}
	return l
}
