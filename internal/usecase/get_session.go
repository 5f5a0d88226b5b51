package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"profile-hub/internal/domain"
	"profile-hub/utils/logger"
)

// SessionResult holds the data returned by GetSession.
type SessionResult struct {
	UserID       string
	TenantID     string
	Email        string
	Role         string
	SessionID    string
	CreatedAt    time.Time
	BackendToken string
}

// GetSession resolves the caller's session, issues a backend token and records
// it as the session's access token. A UserLoginSuccess event is raised when the
// session had no access token yet, so identity revalidation is not a login.
type GetSession struct {
	identities identityResolver
	sessions   domain.SessionStore
	token      domain.TokenIssuer
	events     domain.EventRaiser
	logger     *slog.Logger
}

// NewGetSession creates a new GetSession usecase.
func NewGetSession(v domain.SessionValidator, c domain.IdentityCache, cacheTTL time.Duration, s domain.SessionStore, t domain.TokenIssuer, e domain.EventRaiser, l *slog.Logger) *GetSession {
	return &GetSession{
		identities: identityResolver{validator: v, cache: c, ttl: cacheTTL},
		sessions:   s,
		token:      t,
		events:     e,
		logger:     l,
	}
}

// Execute validates the session identified by sessionID.
func (uc *GetSession) Execute(ctx context.Context, sessionID string) (*SessionResult, error) {
	identity, err := uc.identities.resolve(ctx, sessionID)
	if err != nil {
		if isLoginRejection(err) {
			uc.events.Raise(ctx, domain.NewUserLoginFailureEvent(err.Error()), domain.RequestContext{})
		}
		return nil, err
	}

	ctx = logger.WithUserID(ctx, identity.UserID)

	backendToken, err := uc.token.IssueBackendToken(identity, sessionID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to issue backend token", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	loggedIn := uc.hasAccessToken(sessionID)
	uc.sessions.Put(sessionID, domain.SessionKeyAccessToken, backendToken)

	if !loggedIn {
		rc := domain.RequestContext{Principal: identity.Claims()}
		if session, ok := uc.sessions.Session(sessionID); ok {
			rc.Session = session
		}
		uc.events.Raise(ctx, domain.NewUserLoginSuccessEvent(identity.UserID), rc)
	}

	return &SessionResult{
		UserID:       identity.UserID,
		TenantID:     identity.UserID, // Single-tenant
		Email:        identity.Email,
		Role:         "user",
		SessionID:    sessionID,
		CreatedAt:    identity.CreatedAt,
		BackendToken: backendToken,
	}, nil
}

func (uc *GetSession) hasAccessToken(sessionID string) bool {
	session, ok := uc.sessions.Session(sessionID)
	if !ok {
		return false
	}
	_, found := session.GetString(domain.SessionKeyAccessToken)
	return found
}

// isLoginRejection reports whether err means Kratos refused the session, as
// opposed to Kratos being unreachable.
func isLoginRejection(err error) bool {
	return errors.Is(err, domain.ErrAuthFailed) ||
		errors.Is(err, domain.ErrSessionInactive) ||
		errors.Is(err, domain.ErrMissingIdentity) ||
		errors.Is(err, domain.ErrSessionNotFound)
}
