package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"profile-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestEvent_AttachesSessionAndPrincipal(t *testing.T) {
	identities := newMockIdentityCache()
	identities.entries["session-abc"] = domain.CachedSession{UserID: "alice", Email: "alice@example.com"}
	sessions := newMockSessionStore()
	sessions.Put("session-abc", domain.SessionKeyAccessToken, "tok123")
	raiser := &recordingRaiser{}

	uc := NewIngestEvent(&mockValidator{}, identities, time.Minute, sessions, raiser, slog.Default())
	evt := domain.NewUserLoginSuccessEvent("alice")
	uc.Execute(context.Background(), evt, "session-abc")

	require.Len(t, raiser.raised, 1)
	assert.Equal(t, evt, raiser.raised[0].evt)

	rc := raiser.raised[0].rc
	sub, ok := rc.Subject()
	assert.True(t, ok)
	assert.Equal(t, "alice", sub)
	token, ok := rc.AccessToken()
	assert.True(t, ok)
	assert.Equal(t, "tok123", token)
}

func TestIngestEvent_NoSessionCookie(t *testing.T) {
	validator := &mockValidator{}
	raiser := &recordingRaiser{}

	uc := NewIngestEvent(validator, newMockIdentityCache(), time.Minute, newMockSessionStore(), raiser, slog.Default())
	uc.Execute(context.Background(), domain.NewUserLoginFailureEvent("bad password"), "")

	require.Len(t, raiser.raised, 1)
	assert.Nil(t, raiser.raised[0].rc.Session)
	assert.Empty(t, raiser.raised[0].rc.Principal)
	assert.Zero(t, validator.calls)
}

func TestIngestEvent_UnresolvableSessionStillRaises(t *testing.T) {
	validator := &mockValidator{err: domain.ErrSessionNotFound}
	raiser := &recordingRaiser{}

	uc := NewIngestEvent(validator, newMockIdentityCache(), time.Minute, newMockSessionStore(), raiser, slog.Default())
	uc.Execute(context.Background(), domain.NewUserLoginSuccessEvent("ghost"), "session-gone")

	require.Len(t, raiser.raised, 1)
	assert.Nil(t, raiser.raised[0].rc.Session)
	_, ok := raiser.raised[0].rc.Subject()
	assert.False(t, ok)
	assert.Equal(t, 1, validator.calls)
}
