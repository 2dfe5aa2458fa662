package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionTTL bounds how long an issued admin token stays valid.
const sessionTTL = 12 * time.Hour

// Sessions tracks admin tokens issued by the login endpoint.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

// NewSessions creates an empty session set.
func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]time.Time)}
}

// Issue creates and records a fresh token.
func (s *Sessions) Issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()
	return token
}

// Valid reports whether token was issued and has not expired. Expired
// tokens are pruned on the way out.
func (s *Sessions) Valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.tokens, token)
		return false
	}
	return true
}
