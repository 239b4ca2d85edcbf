package settings

import (
	"context"
	"log/slog"
)

// LevelTrace is below slog.LevelDebug and carries initialization diagnostics.
const LevelTrace = slog.LevelDebug - 4

// Logger receives structured events. *slog.Logger satisfies it.
type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ctx context.Context, level slog.Level, msg string, args ...any)

// Log implements Logger.
func (f LoggerFunc) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if f != nil {
		f(ctx, level, msg, args...)
	}
}

type noopLogger struct{}

func (noopLogger) Log(context.Context, slog.Level, string, ...any) {}

// FixupInfo describes a value corrected by a fixup.
type FixupInfo struct {
	Name     string
	Before   any
	After    any
	Messages []string
}

// FixupHandler reports a fixup event.
type FixupHandler func(info FixupInfo) error

// OnFixupFunc receives every fixup event together with the default handler,
// which it may call to keep the standard warning.
type OnFixupFunc func(info FixupInfo, defaultHandler FixupHandler) error

// defaultFixupHandler logs the event as a warning.
func defaultFixupHandler(logger Logger) FixupHandler {
	return func(info FixupInfo) error {
		logger.Log(context.Background(), slog.LevelWarn, "setting fixed up",
			"name", info.Name,
			"before", info.Before,
			"after", info.After,
			"messages", info.Messages,
		)
		return nil
	}
}

func logTrace(logger Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}
