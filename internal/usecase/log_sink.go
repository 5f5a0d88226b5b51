package usecase

import (
	"context"
	"log/slog"

	"profile-hub/internal/domain"
	"profile-hub/utils/logger"
)

// LogSink writes every event as a structured log record. Request and
// activity identifiers are taken from ctx.
// Implements domain.EventSink.
type LogSink struct {
	logger *logger.ContextLogger
}

// NewLogSink creates a new LogSink.
func NewLogSink(l *slog.Logger) *LogSink {
	return &LogSink{logger: logger.NewContextLogger(l)}
}

// Persist logs evt at info level, or warn level for unsuccessful outcomes.
func (s *LogSink) Persist(ctx context.Context, evt domain.LoginEvent, rc domain.RequestContext) {
	level := slog.LevelInfo
	if !evt.Outcome.IsSuccessful() {
		level = slog.LevelWarn
	}

	attrs := []any{
		"event_id", int(evt.ID),
		"event_name", evt.Name,
		"outcome", evt.Outcome.String(),
	}
	if sub, ok := rc.Subject(); ok {
		attrs = append(attrs, "subject", sub)
	}
	s.logger.WithContext(ctx).Log(ctx, level, evt.Message, attrs...)
}
