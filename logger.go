package slabgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with slabgo-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithUnitSize adds the allocator's unit size to the logger.
func (l *Logger) WithUnitSize(unitSize uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("unit_size", unitSize),
	}
}

// LogInvalidFree logs a rejected deallocation. Invalid frees are converted
// into no-ops, so the log line is the only visible trace of caller misuse.
func (l *Logger) LogInvalidFree(reason string, addr uintptr) {
	l.Warn("deallocate rejected",
		"reason", reason,
		"addr", addr,
	)
}

// LogBlockCreate logs the creation of a new block.
func (l *Logger) LogBlockCreate(id uint32, bytes int) {
	l.Debug("block created",
		"block_id", id,
		"bytes", bytes,
	)
}

// LogBlockDestroy logs the physical release of a block.
func (l *Logger) LogBlockDestroy(id uint32, bytes int) {
	l.Debug("block destroyed",
		"block_id", id,
		"bytes", bytes,
	)
}

// LogReclaim logs an explicit maintenance sweep.
func (l *Logger) LogReclaim(freed int) {
	l.Debug("reclaim completed",
		"freed", freed,
	)
}

// LogLeakedObjects logs objects still live at pool teardown.
func (l *Logger) LogLeakedObjects(count int) {
	if count > 0 {
		l.Warn("pool closed with live objects",
			"count", count,
		)
	}
}
