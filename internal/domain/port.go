package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SessionValidator validates a session cookie against the identity provider.
type SessionValidator interface {
	ValidateSession(ctx context.Context, cookie string) (*Identity, error)
}

// ExpiringCache is a sliding-expiration cache. GetOrCreate runs create at most
// once per key per creation; every hit extends the entry's lifetime by its ttl.
type ExpiringCache[V any] interface {
	GetOrCreate(ctx context.Context, key string, ttl time.Duration, create func(context.Context) (V, error)) (V, error)
	Get(ctx context.Context, key string) (V, bool, error)
}

// ProfileCache stores per-user profile blobs.
type ProfileCache = ExpiringCache[json.RawMessage]

// IdentityCache stores validated sessions keyed by session cookie.
type IdentityCache = ExpiringCache[CachedSession]

// SessionStore holds per-session key/value data.
type SessionStore interface {
	Session(sessionID string) (Session, bool)
	Put(sessionID, key, value string)
}

// TokenIssuer generates signed backend JWT tokens.
type TokenIssuer interface {
	IssueBackendToken(identity *Identity, sessionID string) (string, error)
}

// EventSink consumes raised authentication events. Persist must not panic
// or block beyond its own cache access.
type EventSink interface {
	Persist(ctx context.Context, evt LoginEvent, rc RequestContext)
}

// EventRaiser publishes authentication events to the registered sinks.
type EventRaiser interface {
	Raise(ctx context.Context, evt LoginEvent, rc RequestContext)
}
