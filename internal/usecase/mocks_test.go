package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"profile-hub/internal/domain"
)

// mockValidator implements domain.SessionValidator for testing.
type mockValidator struct {
	identity *domain.Identity
	err      error
	calls    int
	cookie   string
}

func (m *mockValidator) ValidateSession(_ context.Context, cookie string) (*domain.Identity, error) {
	m.calls++
	m.cookie = cookie
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.identity
	return &copied, nil
}

// mockIdentityCache implements domain.IdentityCache for testing.
type mockIdentityCache struct {
	entries map[string]domain.CachedSession
}

func newMockIdentityCache() *mockIdentityCache {
	return &mockIdentityCache{entries: make(map[string]domain.CachedSession)}
}

func (m *mockIdentityCache) GetOrCreate(ctx context.Context, key string, _ time.Duration, create func(context.Context) (domain.CachedSession, error)) (domain.CachedSession, error) {
	if v, ok := m.entries[key]; ok {
		return v, nil
	}
	v, err := create(ctx)
	if err != nil {
		return domain.CachedSession{}, err
	}
	m.entries[key] = v
	return v, nil
}

func (m *mockIdentityCache) Get(_ context.Context, key string) (domain.CachedSession, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

// mockProfileCache implements domain.ProfileCache for testing and records
// every call.
type mockProfileCache struct {
	mu       sync.Mutex
	entries  map[string]json.RawMessage
	ttls     map[string]time.Duration
	creates  int
	hits     int
	gets     int
	err      error
	panicMsg string
}

func newMockProfileCache() *mockProfileCache {
	return &mockProfileCache{
		entries: make(map[string]json.RawMessage),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockProfileCache) GetOrCreate(ctx context.Context, key string, ttl time.Duration, create func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.entries[key]; ok {
		m.hits++
		m.ttls[key] = ttl
		return v, nil
	}
	v, err := create(ctx)
	if err != nil {
		return nil, err
	}
	m.creates++
	m.entries[key] = v
	m.ttls[key] = ttl
	return v, nil
}

func (m *mockProfileCache) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mockProfileCache) touched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates+m.hits+m.gets > 0
}

// mapSession implements domain.Session for testing.
type mapSession map[string]string

func (s mapSession) GetString(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// mockSessionStore implements domain.SessionStore for testing.
type mockSessionStore struct {
	sessions map[string]mapSession
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]mapSession)}
}

func (m *mockSessionStore) Session(sessionID string) (domain.Session, bool) {
	if sessionID == "" {
		return nil, false
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return mapSession{}, true
	}
	return s, true
}

func (m *mockSessionStore) Put(sessionID, key, value string) {
	if m.sessions[sessionID] == nil {
		m.sessions[sessionID] = mapSession{}
	}
	m.sessions[sessionID][key] = value
}

// mockTokenIssuer implements domain.TokenIssuer for testing.
type mockTokenIssuer struct {
	token string
	err   error
}

func (m *mockTokenIssuer) IssueBackendToken(_ *domain.Identity, _ string) (string, error) {
	return m.token, m.err
}

// raisedEvent is one recorded Raise call.
type raisedEvent struct {
	evt domain.LoginEvent
	rc  domain.RequestContext
}

// recordingRaiser implements domain.EventRaiser for testing.
type recordingRaiser struct {
	raised []raisedEvent
}

func (r *recordingRaiser) Raise(_ context.Context, evt domain.LoginEvent, rc domain.RequestContext) {
	r.raised = append(r.raised, raisedEvent{evt: evt, rc: rc})
}
