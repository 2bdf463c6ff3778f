package lattice

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with lattice-specific context.
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

// WithPath adds the database path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithDimensions adds a dimensions field to the logger.
func (l *Logger) WithDimensions(dims int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimensions", dims),
	}
}

// LogSet logs a buffered set operation.
func (l *Logger) LogSet(ctx context.Context, key []string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "set failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "set buffered",
			"key", key,
		)
	}
}

// LogDelete logs a buffered delete operation.
func (l *Logger) LogDelete(ctx context.Context, key []string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete buffered",
			"key", key,
		)
	}
}

// LogFind logs a find operation.
func (l *Logger) LogFind(ctx context.Context, prefix []string, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "find failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "find completed",
			"prefix", prefix,
			"results", resultsFound,
		)
	}
}

// LogCommit logs a commit operation.
func (l *Logger) LogCommit(ctx context.Context, sets, deletes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "commit failed",
			"sets", sets,
			"deletes", deletes,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "commit completed",
			"sets", sets,
			"deletes", deletes,
		)
	}
}

// LogRollback logs a rollback operation.
func (l *Logger) LogRollback(ctx context.Context, sets, deletes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rollback failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rollback completed",
			"discarded_sets", sets,
			"discarded_deletes", deletes,
		)
	}
}

// LogBackup logs a backup operation.
func (l *Logger) LogBackup(ctx context.Context, compression string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup failed",
			"compression", compression,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "backup written",
			"compression", compression,
		)
	}
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed")
	}
}
