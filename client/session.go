// Package client is a Go client for the pressrank API. It manages the token
// lifecycle transparently: requests carry the access token, and an expired
// token triggers a single shared refresh before the failed request is retried.
package client

import (
	"encoding/json"
	"sync"
)

// User is the account identity stored alongside the session tokens.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session is a token pair plus the user it belongs to.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserJSON     string `json:"user"`
}

// SessionStore holds the current session. Safe for concurrent use.
type SessionStore struct {
	mu      sync.RWMutex
	session Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Set replaces the stored session.
func (s *SessionStore) Set(accessToken, refreshToken string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AccessToken = accessToken
	s.session.RefreshToken = refreshToken
	if user != nil {
		raw, err := json.Marshal(user)
		if err == nil {
			s.session.UserJSON = string(raw)
		}
	}
}

// SetTokens replaces the token pair, keeping the stored user.
func (s *SessionStore) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AccessToken = accessToken
	s.session.RefreshToken = refreshToken
}

// AccessToken returns the current access token, or "".
func (s *SessionStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// RefreshToken returns the current refresh token, or "".
func (s *SessionStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

// User returns the stored user. Corrupted stored data yields nil rather than
// an error; the session tokens are still usable without the identity.
func (s *SessionStore) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.UserJSON == "" {
		return nil
	}
	var user User
	if err := json.Unmarshal([]byte(s.session.UserJSON), &user); err != nil {
		return nil
	}
	return &user
}

// Clear drops the session.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
}
