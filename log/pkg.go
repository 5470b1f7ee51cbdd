package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// DefaultContextProvider returns the default context used by context-unaware
// logging functions.
//
//nolint:gochecknoglobals
var DefaultContextProvider = context.TODO

//nolint:gochecknoglobals
var defaultLog atomic.Pointer[Logger]

func init() {
	l := Make(os.Stderr)
	defaultLog.Store(&l)
}

// Default returns the package-level default [Logger].
func Default() Logger { return *defaultLog.Load() }

// SetDefault replaces the package-level default [Logger].
func SetDefault(l Logger) { defaultLog.Store(&l) }

// Config reconfigures [Default] with opts applied over its current
// configuration.
func Config(opts ...Option) { SetDefault(Default().Wrap(opts...)) }

// Package-level logging functions write through [Default].

// Trace logs msg at [LevelTrace].
func Trace(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelTrace, msg, attrs)
}

// TraceContext logs msg at [LevelTrace] with ctx.
func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelTrace, msg, attrs)
}

// Debug logs msg at [LevelDebug].
func Debug(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelDebug, msg, attrs)
}

// DebugContext logs msg at [LevelDebug] with ctx.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelDebug, msg, attrs)
}

// Info logs msg at [LevelInfo].
func Info(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelInfo, msg, attrs)
}

// InfoContext logs msg at [LevelInfo] with ctx.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelInfo, msg, attrs)
}

// Warn logs msg at [LevelWarn].
func Warn(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelWarn, msg, attrs)
}

// WarnContext logs msg at [LevelWarn] with ctx.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelWarn, msg, attrs)
}

// Error logs msg at [LevelError].
func Error(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelError, msg, attrs)
}

// ErrorContext logs msg at [LevelError] with ctx.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelError, msg, attrs)
}

// With returns [Default] with attrs added to every record.
func With(attrs ...slog.Attr) Logger {
	return Default().With(attrs...)
}
