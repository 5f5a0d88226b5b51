package logger

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey is the type of context keys read by ContextLogger.
type ContextKey string

const (
	UserIDKey     ContextKey = "user_id"
	RequestIDKey  ContextKey = "request_id"
	ActivityIDKey ContextKey = "activity_id"
)

// contextKeys are copied onto log records in this order.
var contextKeys = []ContextKey{UserIDKey, RequestIDKey, ActivityIDKey}

// GlobalContext is the process-wide ContextLogger set by Init.
var GlobalContext = NewContextLogger(slog.Default())

// ContextLogger adds request-scoped identifiers from a context to log records.
type ContextLogger struct {
	logger *slog.Logger
}

func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger carrying every identifier set on ctx.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	var fields []any
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, string(key), v)
		}
	}
	if len(fields) == 0 {
		return cl.logger
	}
	return cl.logger.With(fields...)
}

// LogDuration logs how long operation took, in milliseconds.
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, d time.Duration) {
	cl.WithContext(ctx).InfoContext(ctx, "operation completed",
		"operation", operation,
		"duration_ms", d.Milliseconds())
}

// LogError logs a failed operation.
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).ErrorContext(ctx, "operation failed",
		"operation", operation,
		"error", err.Error())
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithActivityID(ctx context.Context, activityID string) context.Context {
	return context.WithValue(ctx, ActivityIDKey, activityID)
}
