// Package session keeps the logged-in admin identity between runs.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StorageKey is the well-known key the login response is stored under.
const StorageKey = "user"

// Session is the raw login response returned by the server. Its presence is
// the only proof of authorization; it is never refreshed and never expires.
type Session struct {
	Raw json.RawMessage
}

// New wraps a raw login response. The response must be valid JSON.
func New(raw []byte) (*Session, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("empty login response")
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("login response is not valid JSON")
	}
	return &Session{Raw: json.RawMessage(trimmed)}, nil
}

// Email returns the identity marker from the login response, if any.
// Both {"email": ...} and {"user": {"email": ...}} shapes are recognized.
func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	var body struct {
		Email string `json:"email"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(s.Raw, &body); err != nil {
		return ""
	}
	if body.Email != "" {
		return body.Email
	}
	return body.User.Email
}

// Store holds the current session. Views receive a Store rather than
// reading persisted state themselves.
type Store interface {
	// Init loads any persisted session. It must be called once at startup.
	Init(ctx context.Context) (*Session, error)
	// Get returns the current session, or nil when logged out.
	Get() *Session
	// Set replaces the current session and persists it.
	Set(ctx context.Context, s *Session) error
	// Clear removes the current session.
	Clear(ctx context.Context) error
	// LoggedIn reports whether a session is present.
	LoggedIn() bool
}
