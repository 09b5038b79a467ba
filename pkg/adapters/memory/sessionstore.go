package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ndanaka/chatflow/pkg/session"
)

// SessionStore keeps serialized session states in a map. States are stored
// as JSON so callers never share mutable state with the store, matching the
// semantics of the redis adapter.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStoreOption customizes a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithSessionTTL evicts sessions untouched for longer than ttl.
func WithSessionTTL(ttl time.Duration) SessionStoreOption {
	return func(s *SessionStore) { s.ttl = ttl }
}

// NewSessionStore returns an empty store. Without a TTL sessions live until
// deleted.
func NewSessionStore(opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements session.Store.
func (s *SessionStore) Save(_ context.Context, sessionID string, state *session.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}
	entry := sessionEntry{data: data}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.sessions[sessionID] = entry
	s.mu.Unlock()
	return nil
}

// Load implements session.Store.
func (s *SessionStore) Load(_ context.Context, sessionID string) (*session.State, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, session.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, session.ErrNotFound
	}
	var state session.State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete implements session.Store.
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live sessions, counting expired ones not yet
// evicted.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
