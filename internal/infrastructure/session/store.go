package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"profile-hub/internal/domain"
	"profile-hub/internal/infrastructure/cache"
)

// values is an immutable snapshot of one session's data.
type values map[string]string

// GetString implements domain.Session.
func (v values) GetString(key string) (string, bool) {
	s, ok := v[key]
	return s, ok
}

// Store keeps per-session key/value data in memory, keyed by session ID.
// Sessions idle for longer than the idle TTL are dropped.
// Implements domain.SessionStore.
type Store struct {
	mu      sync.Mutex
	entries *cache.Expiring[values]
	idleTTL time.Duration
}

// NewStore creates a session store.
func NewStore(idleTTL time.Duration, capacity int) (*Store, error) {
	entries, err := cache.NewExpiring[values]("session", capacity)
	if err != nil {
		return nil, err
	}
	return &Store{entries: entries, idleTTL: idleTTL}, nil
}

// Session returns a snapshot of the session's data. It reports false when
// the request carries no session ID.
func (s *Store) Session(sessionID string) (domain.Session, bool) {
	if sessionID == "" {
		return nil, false
	}
	v, found, _ := s.entries.Get(context.Background(), sessionID)
	if !found {
		return values{}, true
	}
	return v, true
}

// Put sets key to value in the session, creating the session if needed.
func (s *Store) Put(sessionID, key, value string) {
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, _ := s.entries.Get(context.Background(), sessionID)
	next := make(values, len(current)+1)
	maps.Copy(next, current)
	next[key] = value
	_ = s.entries.Set(sessionID, next, s.idleTTL)
}

// Close stops the background sweep.
func (s *Store) Close() {
	s.entries.Close()
}
