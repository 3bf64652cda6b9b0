// Package logger provides the structured logger used across the depth
// aggregation engine. It wraps the standard library's log/slog behind the
// LoggerInterface shape the rest of the codebase calls against.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level is a logging verbosity level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is the logging contract every component depends on, so
// that tests can substitute a no-op or buffering implementation.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) LoggerInterface
}

// Logger is the slog-backed LoggerInterface implementation.
type Logger struct {
	l *slog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing JSON records to w at the given level. name
// identifies the component (set as a "component" attribute); extra adds any
// additional fixed attributes (e.g. deployment environment).
func New(w io.Writer, level Level, name string, extra map[string]any) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	sl := slog.New(handler)
	if name != "" {
		sl = sl.With("component", name)
	}
	for k, v := range extra {
		sl = sl.With(k, v)
	}
	return &Logger{l: sl}
}

func (lg *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	lg.l.DebugContext(ctx, msg, kv...)
}

func (lg *Logger) Info(ctx context.Context, msg string, kv ...any) {
	lg.l.InfoContext(ctx, msg, kv...)
}

func (lg *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	lg.l.WarnContext(ctx, msg, kv...)
}

func (lg *Logger) Error(ctx context.Context, msg string, kv ...any) {
	lg.l.ErrorContext(ctx, msg, kv...)
}

// With returns a Logger that always carries the given key/value pairs.
func (lg *Logger) With(kv ...any) LoggerInterface {
	return &Logger{l: lg.l.With(kv...)}
}
