package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"profile-hub/internal/domain"
	"profile-hub/internal/infrastructure/cache"
	"profile-hub/internal/infrastructure/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGetSession(v *mockValidator, c *mockIdentityCache, s *mockSessionStore, t *mockTokenIssuer, e *recordingRaiser) *GetSession {
	return NewGetSession(v, c, 5*time.Minute, s, t, e, slog.Default())
}

func TestGetSession_CacheHit(t *testing.T) {
	identities := newMockIdentityCache()
	identities.entries["session-abc"] = domain.CachedSession{
		UserID: "user-123",
		Email:  "test@example.com",
	}
	validator := &mockValidator{}
	sessions := newMockSessionStore()
	sessions.Put("session-abc", domain.SessionKeyAccessToken, "jwt-token-old")
	raiser := &recordingRaiser{}

	uc := newTestGetSession(validator, identities, sessions, &mockTokenIssuer{token: "jwt-token-123"}, raiser)
	result, err := uc.Execute(context.Background(), "session-abc")

	require.NoError(t, err)
	assert.Equal(t, "user-123", result.UserID)
	assert.Equal(t, "user-123", result.TenantID)
	assert.Equal(t, "test@example.com", result.Email)
	assert.Equal(t, "user", result.Role)
	assert.Equal(t, "session-abc", result.SessionID)
	assert.Equal(t, "jwt-token-123", result.BackendToken)
	assert.Zero(t, validator.calls)
	assert.Empty(t, raiser.raised, "a session with an access token is not a new login")
	assert.Equal(t, "jwt-token-123", sessions.sessions["session-abc"][domain.SessionKeyAccessToken])
}

func TestGetSession_CacheMissRaisesLogin(t *testing.T) {
	identities := newMockIdentityCache()
	validator := &mockValidator{
		identity: &domain.Identity{
			UserID: "user-456",
			Email:  "new@example.com",
		},
	}
	sessions := newMockSessionStore()
	raiser := &recordingRaiser{}

	uc := newTestGetSession(validator, identities, sessions, &mockTokenIssuer{token: "jwt-new-token"}, raiser)
	result, err := uc.Execute(context.Background(), "session-xyz")

	require.NoError(t, err)
	assert.Equal(t, "user-456", result.UserID)
	assert.Equal(t, "jwt-new-token", result.BackendToken)
	assert.Equal(t, 1, validator.calls)
	assert.Equal(t, "ory_kratos_session=session-xyz", validator.cookie)

	cached, found := identities.entries["session-xyz"]
	assert.True(t, found)
	assert.Equal(t, "user-456", cached.UserID)

	require.Len(t, raiser.raised, 1)
	raised := raiser.raised[0]
	assert.Equal(t, domain.EventUserLoginSuccess, raised.evt.ID)
	assert.Equal(t, domain.OutcomeSuccess, raised.evt.Outcome)
	assert.NotEmpty(t, raised.evt.ActivityID)

	sub, ok := raised.rc.Subject()
	assert.True(t, ok)
	assert.Equal(t, "user-456", sub)
	token, ok := raised.rc.AccessToken()
	assert.True(t, ok)
	assert.Equal(t, "jwt-new-token", token)
}

func TestGetSession_SecondRequestDoesNotRaise(t *testing.T) {
	validator := &mockValidator{identity: &domain.Identity{UserID: "user-1"}}
	raiser := &recordingRaiser{}
	uc := newTestGetSession(validator, newMockIdentityCache(), newMockSessionStore(), &mockTokenIssuer{token: "tok"}, raiser)

	_, err := uc.Execute(context.Background(), "session-1")
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), "session-1")
	require.NoError(t, err)

	assert.Equal(t, 1, validator.calls)
	assert.Len(t, raiser.raised, 1)
}

func TestGetSession_CachedIdentityWithoutTokenRaisesLogin(t *testing.T) {
	identities := newMockIdentityCache()
	identities.entries["session-abc"] = domain.CachedSession{UserID: "user-123"}
	raiser := &recordingRaiser{}

	uc := newTestGetSession(&mockValidator{}, identities, newMockSessionStore(), &mockTokenIssuer{token: "tok"}, raiser)
	_, err := uc.Execute(context.Background(), "session-abc")

	require.NoError(t, err)
	require.Len(t, raiser.raised, 1)
	assert.Equal(t, domain.EventUserLoginSuccess, raiser.raised[0].evt.ID)
}

func TestGetSession_IdentityExpiryIsNotRelogin(t *testing.T) {
	identities, err := cache.NewExpiring[domain.CachedSession]("identity", 10, cache.WithSweepInterval(0), cache.WithAbsoluteExpiry())
	require.NoError(t, err)
	t.Cleanup(identities.Close)
	sessions, err := session.NewStore(time.Hour, 10)
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	validator := &mockValidator{identity: &domain.Identity{UserID: "user-1"}}
	raiser := &recordingRaiser{}
	uc := NewGetSession(validator, identities, 10*time.Millisecond, sessions, &mockTokenIssuer{token: "tok"}, raiser, slog.Default())

	for i := 0; i < 3; i++ {
		_, err := uc.Execute(context.Background(), "sess-1")
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}

	assert.Equal(t, 3, validator.calls, "every call revalidates with Kratos")
	require.Len(t, raiser.raised, 1)
	assert.Equal(t, domain.EventUserLoginSuccess, raiser.raised[0].evt.ID)
}

func TestGetSession_KratosRejectionRaisesFailure(t *testing.T) {
	identities := newMockIdentityCache()
	raiser := &recordingRaiser{}
	uc := newTestGetSession(&mockValidator{err: domain.ErrAuthFailed}, identities, newMockSessionStore(), &mockTokenIssuer{token: "unused"}, raiser)

	result, err := uc.Execute(context.Background(), "session-bad")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Empty(t, identities.entries)

	require.Len(t, raiser.raised, 1)
	assert.Equal(t, domain.EventUserLoginFailure, raiser.raised[0].evt.ID)
	assert.Equal(t, domain.OutcomeFailure, raiser.raised[0].evt.Outcome)
	assert.Nil(t, raiser.raised[0].rc.Session)
}

func TestGetSession_KratosUnavailableRaisesNothing(t *testing.T) {
	raiser := &recordingRaiser{}
	uc := newTestGetSession(&mockValidator{err: domain.ErrKratosUnavailable}, newMockIdentityCache(), newMockSessionStore(), &mockTokenIssuer{}, raiser)

	_, err := uc.Execute(context.Background(), "session-x")

	assert.ErrorIs(t, err, domain.ErrKratosUnavailable)
	assert.Empty(t, raiser.raised)
}

func TestGetSession_TokenGenerationError(t *testing.T) {
	identities := newMockIdentityCache()
	identities.entries["session-abc"] = domain.CachedSession{UserID: "user-123"}
	sessions := newMockSessionStore()
	tokenIssuer := &mockTokenIssuer{err: errors.New("signing failed")}

	uc := newTestGetSession(&mockValidator{}, identities, sessions, tokenIssuer, &recordingRaiser{})
	result, err := uc.Execute(context.Background(), "session-abc")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrTokenGeneration)
	assert.Contains(t, err.Error(), "signing failed")
	assert.Empty(t, sessions.sessions)
}
