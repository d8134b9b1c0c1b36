package annopack

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with annopack-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKey adds an annotation key field to the logger.
func (l *Logger) WithKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithSlot adds a slot id field to the logger.
func (l *Logger) WithSlot(slot uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("slot", slot),
	}
}

// LogRegister logs an owner registration.
func (l *Logger) LogRegister(ctx context.Context, slot uint32, implicit bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "owner registration failed",
			"implicit", implicit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "owner registered",
			"slot", slot,
			"implicit", implicit,
		)
	}
}

// LogUnregister logs an owner unregistration.
func (l *Logger) LogUnregister(ctx context.Context, slot uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "owner unregistration failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "owner unregistered",
			"slot", slot,
		)
	}
}

// LogSchemaChange logs a handle registration or unregistration.
func (l *Logger) LogSchemaChange(ctx context.Context, added, removed []string, slotSize int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "schema change failed",
			"added", added,
			"removed", removed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "schema changed",
			"added", added,
			"removed", removed,
			"slot_size", slotSize,
		)
	}
}

// LogReclaim logs weak owners dropped after garbage collection.
func (l *Logger) LogReclaim(ctx context.Context, reclaimed int) {
	if reclaimed == 0 {
		return
	}
	l.DebugContext(ctx, "reclaimed collected owners",
		"count", reclaimed,
	)
}
