package usecase

import (
	"context"
	"fmt"
	"time"

	"profile-hub/internal/domain"
)

// identityResolver turns a session ID into an identity, asking Kratos only on
// an identity cache miss.
type identityResolver struct {
	validator domain.SessionValidator
	cache     domain.IdentityCache
	ttl       time.Duration
}

// resolve returns the identity for sessionID.
func (r identityResolver) resolve(ctx context.Context, sessionID string) (*domain.Identity, error) {
	cached, err := r.cache.GetOrCreate(ctx, sessionID, r.ttl, func(ctx context.Context) (domain.CachedSession, error) {
		validated, err := r.validator.ValidateSession(ctx, fmt.Sprintf("ory_kratos_session=%s", sessionID))
		if err != nil {
			return domain.CachedSession{}, err
		}
		return domain.CachedSession{
			UserID:    validated.UserID,
			Email:     validated.Email,
			CreatedAt: validated.CreatedAt,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.Identity{
		UserID:    cached.UserID,
		Email:     cached.Email,
		SessionID: sessionID,
		CreatedAt: cached.CreatedAt,
	}, nil
}
