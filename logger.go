package vmc

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vmc-specific context.
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

// WithChains adds a chain-count field to the logger.
func (l *Logger) WithChains(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("chains", n),
	}
}

// WithChainLength adds a chain-length field to the logger.
func (l *Logger) WithChainLength(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("chain_length", n),
	}
}

// LogSample logs a sampling call.
func (l *Logger) LogSample(ctx context.Context, chainLength, nChains int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sampling failed",
			"chain_length", chainLength,
			"chains", nChains,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sampling completed",
			"chain_length", chainLength,
			"chains", nChains,
		)
	}
}

// LogExpect logs an expectation-value estimation.
func (l *Logger) LogExpect(ctx context.Context, opKind string, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "expectation failed",
			"operator", opKind,
			"samples", samples,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "expectation completed",
			"operator", opKind,
			"samples", samples,
		)
	}
}

// LogSnapshot logs a snapshot save or restore.
func (l *Logger) LogSnapshot(ctx context.Context, op string, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"samples", samples,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"samples", samples,
		)
	}
}
