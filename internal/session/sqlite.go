package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/evcraddock/property-listing/internal/db"
)

// SQLiteStore persists the session as a key/value row in the local state
// database. Reads are served from memory after Init.
type SQLiteStore struct {
	db  *sql.DB
	key string

	mu      sync.RWMutex
	current *Session
}

// NewSQLiteStore creates a store backed by the kv table of database.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database, key: StorageKey}
}

// Init loads the persisted session, if any.
func (s *SQLiteStore) Init(ctx context.Context) (*Session, error) {
	value, err := db.Get(ctx, s.db, s.key)
	if errors.Is(err, db.ErrNotFound) {
		s.setCurrent(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess, err := New([]byte(value))
	if err != nil {
		// A corrupt record counts as logged out.
		s.setCurrent(nil)
		return nil, nil
	}

	s.setCurrent(sess)
	return sess, nil
}

// Get returns the current session.
func (s *SQLiteStore) Get() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set stores sess and makes it current.
func (s *SQLiteStore) Set(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session is nil")
	}

	if err := db.Put(ctx, s.db, s.key, string(sess.Raw)); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	s.setCurrent(sess)
	return nil
}

// Clear deletes the stored session.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := db.Delete(ctx, s.db, s.key); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	s.setCurrent(nil)
	return nil
}

// LoggedIn reports whether a session is present.
func (s *SQLiteStore) LoggedIn() bool {
	return s.Get() != nil
}

func (s *SQLiteStore) setCurrent(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}
