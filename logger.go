package holomem

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with holomem-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithSeed adds the instance seed to the logger.
func (l *Logger) WithSeed(seed int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("seed", seed),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogLearn logs a learn operation over a token sequence.
func (l *Logger) LogLearn(ctx context.Context, tokens, vocabulary int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "learn failed",
			"tokens", tokens,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "learn completed",
			"tokens", tokens,
			"vocabulary", vocabulary,
		)
	}
}

// LogPredict logs a prediction and the symbol it decoded to.
func (l *Logger) LogPredict(ctx context.Context, contextLen int, symbol string, similarity float64, refined bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "predict failed",
			"context", contextLen,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "predict completed",
			"context", contextLen,
			"symbol", symbol,
			"similarity", similarity,
			"refined", refined,
		)
	}
}

// LogSnapshot logs a snapshot save.
func (l *Logger) LogSnapshot(ctx context.Context, name string, prototypes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
			"prototypes", prototypes,
		)
	}
}

// LogRestore logs a snapshot load.
func (l *Logger) LogRestore(ctx context.Context, name string, prototypes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot restored",
			"name", name,
			"prototypes", prototypes,
		)
	}
}
