package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"profile-hub/internal/domain"
)

// LookupProfile reads a cached profile by subject.
type LookupProfile struct {
	cache  domain.ProfileCache
	logger *slog.Logger
}

// NewLookupProfile creates a new LookupProfile usecase.
func NewLookupProfile(c domain.ProfileCache, l *slog.Logger) *LookupProfile {
	return &LookupProfile{cache: c, logger: l}
}

// Execute returns the cached profile for subject. A successful lookup
// refreshes the entry's expiry.
func (uc *LookupProfile) Execute(ctx context.Context, subject string) (json.RawMessage, error) {
	if subject == "" {
		return nil, domain.ErrMissingSubject
	}

	profile, found, err := uc.cache.Get(ctx, domain.UserProfileKey(subject))
	if err != nil {
		uc.logger.ErrorContext(ctx, "profile lookup failed", "error", err)
		return nil, err
	}
	if !found {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}
