package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger is a leveled structured logger safe for concurrent use.
//
// The zero Logger discards every record, so a struct may embed or hold a
// Logger without its users configuring one.
type Logger struct {
	*slog.Logger
	config
}

func newLogger(c config) Logger {
	return Logger{Logger: slog.New(c.handler()), config: c}
}

// Make returns a Logger writing to w. Without options it writes
// [DefaultFormat] records at [DefaultLevel] and above, stamped with
// [DefaultTimeLayout] and without caller information.
func Make(w io.Writer, opts ...Option) Logger {
	return newLogger(defaultConfig(w).with(opts...))
}

// Wrap returns a Logger configured like l with opts applied on top.
// Attributes added through [Logger.With] are dropped.
func (l Logger) Wrap(opts ...Option) Logger {
	c := l.config
	if l.Logger == nil {
		c = defaultConfig(nil)
	}

	return newLogger(c.with(opts...))
}

// With returns a Logger that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	return Logger{
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
		config: l.config,
	}
}

// Level returns the minimum level of records l writes.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the record encoding of l.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.format
}

// Each logging method below calls emit directly, so that a record's source
// is the caller of the method.

// Trace logs msg at [LevelTrace].
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelTrace, msg, attrs)
}

// TraceContext logs msg at [LevelTrace] with ctx.
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelTrace, msg, attrs)
}

// Debug logs msg at [LevelDebug].
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelDebug, msg, attrs)
}

// DebugContext logs msg at [LevelDebug] with ctx.
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelDebug, msg, attrs)
}

// Info logs msg at [LevelInfo].
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelInfo, msg, attrs)
}

// InfoContext logs msg at [LevelInfo] with ctx.
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelInfo, msg, attrs)
}

// Warn logs msg at [LevelWarn].
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelWarn, msg, attrs)
}

// WarnContext logs msg at [LevelWarn] with ctx.
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelWarn, msg, attrs)
}

// Error logs msg at [LevelError].
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelError, msg, attrs)
}

// ErrorContext logs msg at [LevelError] with ctx.
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelError, msg, attrs)
}

// emit skips runtime.Callers, itself, and the exported method.
const emitSkip = 3

func (l Logger) emit(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pc [1]uintptr
	runtime.Callers(emitSkip, pc[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pc[0])
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
