package usecase

import (
	"context"
	"log/slog"
	"time"

	"profile-hub/internal/domain"
)

// IngestEvent raises an event reported by an external component, attaching the
// request context of the session it names.
type IngestEvent struct {
	identities identityResolver
	sessions   domain.SessionStore
	events     domain.EventRaiser
	logger     *slog.Logger
}

// NewIngestEvent creates a new IngestEvent usecase.
func NewIngestEvent(v domain.SessionValidator, c domain.IdentityCache, cacheTTL time.Duration, s domain.SessionStore, e domain.EventRaiser, l *slog.Logger) *IngestEvent {
	return &IngestEvent{
		identities: identityResolver{validator: v, cache: c, ttl: cacheTTL},
		sessions:   s,
		events:     e,
		logger:     l,
	}
}

// Execute raises evt. When sessionID does not resolve to a valid session the
// event is still raised, without a session or principal.
func (uc *IngestEvent) Execute(ctx context.Context, evt domain.LoginEvent, sessionID string) {
	var rc domain.RequestContext

	if sessionID != "" {
		identity, err := uc.identities.resolve(ctx, sessionID)
		if err != nil {
			uc.logger.WarnContext(ctx, "event session could not be resolved",
				"event_id", int(evt.ID),
				"activity_id", evt.ActivityID,
				"error", err)
		} else {
			rc.Principal = identity.Claims()
			if session, ok := uc.sessions.Session(sessionID); ok {
				rc.Session = session
			}
		}
	}

	uc.events.Raise(ctx, evt, rc)
}
