package session

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a Store that keeps the session only for the life of the
// process.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init returns the current session.
func (m *MemoryStore) Init(ctx context.Context) (*Session, error) {
	return m.Get(), nil
}

// Get returns the current session.
func (m *MemoryStore) Get() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set replaces the current session.
func (m *MemoryStore) Set(ctx context.Context, s *Session) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	return nil
}

// Clear removes the current session.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}

// LoggedIn reports whether a session is present.
func (m *MemoryStore) LoggedIn() bool {
	return m.Get() != nil
}
