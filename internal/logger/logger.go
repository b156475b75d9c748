// Package logger owns the process-wide slog configuration. Production runs
// emit JSON for log aggregation; development gets readable text at debug
// level. Request-scoped identifiers travel through the context so any layer
// can log with them attached.
package logger

import (
	"context"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = slog.New(newHandler(os.Getenv("ENV")))
	slog.SetDefault(defaultLogger)
}

func newHandler(env string) slog.Handler {
	if env == "production" {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
}

// Logger returns the default logger
func Logger() *slog.Logger {
	return defaultLogger
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID adds the authenticated user's ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// FromContext returns a logger carrying whatever identifiers the context
// holds. Safe on a bare context; it falls back to the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	l := defaultLogger

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		l = l.With("request_id", requestID)
	}
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		l = l.With("user_id", userID)
	}

	return l
}

// Convenience functions

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}
