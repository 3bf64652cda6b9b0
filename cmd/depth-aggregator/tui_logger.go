package main

import (
	"context"
	"errors"

	"github.com/fd1az/depth-aggregator/internal/logger"
	"github.com/fd1az/depth-aggregator/pkg/ui"
)

// tuiLogger decorates a LoggerInterface so that warnings and errors also
// surface in the running TUI's event log and error panel, in addition to
// whatever the underlying logger does with them (io.Discard in TUI mode).
type tuiLogger struct {
	logger.LoggerInterface
}

func newTUILogger(base logger.LoggerInterface) *tuiLogger {
	return &tuiLogger{LoggerInterface: base}
}

func (l *tuiLogger) Warn(ctx context.Context, msg string, kv ...any) {
	l.LoggerInterface.Warn(ctx, msg, kv...)
	ui.Send(ui.ErrorMsg{Error: errors.New(msg)})
}

func (l *tuiLogger) Error(ctx context.Context, msg string, kv ...any) {
	l.LoggerInterface.Error(ctx, msg, kv...)
	ui.Send(ui.ErrorMsg{Error: errors.New(msg)})
}

func (l *tuiLogger) With(kv ...any) logger.LoggerInterface {
	return &tuiLogger{LoggerInterface: l.LoggerInterface.With(kv...)}
}
