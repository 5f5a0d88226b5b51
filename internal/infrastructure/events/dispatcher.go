package events

import (
	"context"
	"fmt"
	"log/slog"

	"profile-hub/internal/domain"
	"profile-hub/utils/logger"
)

// Dispatcher delivers each raised event to every registered sink, in
// registration order. Implements domain.EventRaiser.
type Dispatcher struct {
	sinks  []domain.EventSink
	logger *logger.ContextLogger
}

// NewDispatcher creates a dispatcher for the given sinks.
func NewDispatcher(l *slog.Logger, sinks ...domain.EventSink) *Dispatcher {
	return &Dispatcher{sinks: sinks, logger: logger.NewContextLogger(l)}
}

// Raise delivers evt to all sinks. Sinks see the event's activity id on ctx.
// A panicking sink is logged and skipped.
func (d *Dispatcher) Raise(ctx context.Context, evt domain.LoginEvent, rc domain.RequestContext) {
	ctx = logger.WithActivityID(ctx, evt.ActivityID)
	for _, sink := range d.sinks {
		d.deliver(ctx, sink, evt, rc)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink domain.EventSink, evt domain.LoginEvent, rc domain.RequestContext) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithContext(ctx).ErrorContext(ctx, "event sink panicked",
				"sink", fmt.Sprintf("%T", sink),
				"event_id", int(evt.ID),
				"panic", fmt.Sprint(r))
		}
	}()
	sink.Persist(ctx, evt, rc)
}
