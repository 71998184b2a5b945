// Package oauth manages OAuth2 authorization-code sessions for external
// platforms and gates capability calls on their presence.
package oauth

import (
	"context"
	"sync"
	"time"
)

// Session holds the token pair obtained from one authorization-code
// exchange. Sessions are never refreshed or expired by the gateway; an
// expired access token is only discovered when a downstream call fails.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

// SessionStore is a keyed store for platform sessions. Implementations
// must be safe for concurrent use. Put overwrites any existing session
// for the key: the last completed authorization wins.
type SessionStore interface {
	Get(ctx context.Context, key string) (Session, bool, error)
	Put(ctx context.Context, key string, s Session) error
	Clear(ctx context.Context, key string) error
}

// MemoryStore is the default in-process SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-process session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Get returns the session stored under key, if any.
func (m *MemoryStore) Get(_ context.Context, key string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	return s, ok, nil
}

// Put stores a session under key, overwriting any existing one.
func (m *MemoryStore) Put(_ context.Context, key string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = s
	return nil
}

// Clear removes the session stored under key.
func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}
