package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"profile-hub/internal/domain"
	"profile-hub/utils/otel"
)

// DefaultProfileTTL is the sliding lifetime of a cached profile.
const DefaultProfileTTL = 600 * time.Second

// ProfileCacheSink caches {subject: access token} for every successful login.
// Caching is best effort: it never fails or delays the login itself.
// Implements domain.EventSink.
type ProfileCacheSink struct {
	cache  domain.ProfileCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewProfileCacheSink creates a new ProfileCacheSink. A non-positive ttl
// selects DefaultProfileTTL.
func NewProfileCacheSink(c domain.ProfileCache, ttl time.Duration, l *slog.Logger) *ProfileCacheSink {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCacheSink{cache: c, ttl: ttl, logger: l}
}

// Persist handles one event. Only UserLoginSuccess events are considered;
// unsuccessful outcomes of that event are reported at error level.
func (s *ProfileCacheSink) Persist(ctx context.Context, evt domain.LoginEvent, rc domain.RequestContext) {
	if evt.ID != domain.EventUserLoginSuccess {
		return
	}

	if !evt.Outcome.IsSuccessful() {
		s.logger.ErrorContext(ctx, evt.Diagnostic(),
			"event_id", int(evt.ID),
			"event_name", evt.Name,
			"activity_id", evt.ActivityID)
		otel.RecordSinkResult(ctx, "rejected")
		return
	}

	key, err := s.cacheProfile(ctx, rc)
	if err != nil {
		s.logger.DebugContext(ctx, "profile caching skipped", "reason", err.Error())
		otel.RecordSinkResult(ctx, "skipped")
		return
	}
	otel.RecordSinkResult(ctx, "cached")
	s.logger.DebugContext(ctx, "profile cached", "cache_key", key)
}

// cacheProfile populates the profile entry for the request's subject and
// reads it back. It returns the cache key on success.
func (s *ProfileCacheSink) cacheProfile(ctx context.Context, rc domain.RequestContext) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("profile cache panicked: %v", r)
		}
	}()

	if rc.Session == nil {
		return "", domain.ErrSessionUnavailable
	}
	subject, ok := rc.Subject()
	if !ok {
		return "", domain.ErrMissingSubject
	}
	token, ok := rc.AccessToken()
	if !ok {
		return "", domain.ErrMissingAccessToken
	}

	key = domain.UserProfileKey(subject)
	_, err = s.cache.GetOrCreate(ctx, key, s.ttl, func(context.Context) (json.RawMessage, error) {
		return json.Marshal(map[string]string{subject: token})
	})
	if err != nil {
		return "", fmt.Errorf("populate %s: %w", key, err)
	}

	// Read back through the cache; this also counts as an access.
	_, found, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("verify %s: %w", key, err)
	}
	if !found {
		return "", fmt.Errorf("verify %s: %w", key, domain.ErrProfileNotFound)
	}
	return key, nil
}
