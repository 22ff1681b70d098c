// Package log defines the public logging interface used across deepclone packages.
package log

import (
	"context"
	"log/slog"
)

// Logger is the logging contract the clone engine and its listeners write to.
// Any slog-style implementation can be plugged in through WithLogger.
type Logger interface {
	// Debugf logs a formatted message at the DEBUG level.
	Debugf(format string, args ...interface{})
	// Infof logs a formatted message at the INFO level.
	Infof(format string, args ...interface{})
	// Warnf logs a formatted message at the WARN level.
	Warnf(format string, args ...interface{})
	// Errorf logs a formatted message at the ERROR level. Implementations
	// should check whether the last arg is an error and log it structurally.
	Errorf(format string, args ...interface{})

	// Log logs a message at the given level with key-value attributes.
	Log(level slog.Level, msg string, args ...interface{})
	// LogCtx is Log with a context, so trace ids can be attached.
	LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{})

	// With returns a Logger that adds args to every entry.
	With(args ...interface{}) Logger
	// IsEnabled reports whether entries at level would be written.
	IsEnabled(level slog.Level) bool
}
