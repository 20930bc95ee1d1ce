// Package admin implements the shared-secret gate in front of report deletion.
//
// The gate is a low-assurance convenience check: one plaintext secret held by
// the server, no per-user identity, no expiry and no rate limiting. Unlocking
// issues an opaque session token that stays valid until it is locked again or
// the process restarts.
package admin

import (
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
)

// Result is the outcome of checking a candidate secret.
type Result int

const (
	// ResultNoInput means the candidate was empty; callers show no feedback.
	ResultNoInput Result = iota
	// ResultWrongPassword means a non-empty candidate did not match.
	ResultWrongPassword
	// ResultUnlocked means the candidate matched.
	ResultUnlocked
)

// String returns the metrics label for r.
func (r Result) String() string {
	switch r {
	case ResultUnlocked:
		return "unlocked"
	case ResultWrongPassword:
		return "wrong_password"
	default:
		return "empty"
	}
}

// WrongPasswordMessage is the only feedback given for a mismatch.
const WrongPasswordMessage = "wrong password"

// Gate compares candidates against the server secret and tracks unlocked
// sessions.
type Gate struct {
	secret []byte

	mu       sync.RWMutex
	sessions map[string]struct{}
}

// NewGate creates a gate for the given secret.
func NewGate(secret string) *Gate {
	return &Gate{
		secret:   []byte(secret),
		sessions: make(map[string]struct{}),
	}
}

// Check compares candidate byte-for-byte against the secret in constant time.
func (g *Gate) Check(candidate string) Result {
	if candidate == "" {
		return ResultNoInput
	}
	if subtle.ConstantTimeCompare([]byte(candidate), g.secret) == 1 {
		return ResultUnlocked
	}
	return ResultWrongPassword
}

// Unlock checks candidate and, on a match, registers and returns a new session
// token. The token is empty for any other result.
func (g *Gate) Unlock(candidate string) (string, Result) {
	res := g.Check(candidate)
	if res != ResultUnlocked {
		return "", res
	}

	token := uuid.NewString()
	g.mu.Lock()
	g.sessions[token] = struct{}{}
	g.mu.Unlock()
	return token, res
}

// Unlocked reports whether token belongs to an unlocked session.
func (g *Gate) Unlocked(token string) bool {
	if token == "" {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.sessions[token]
	return ok
}

// Lock forgets a session token. Unknown tokens are ignored.
func (g *Gate) Lock(token string) {
	g.mu.Lock()
	delete(g.sessions, token)
	g.mu.Unlock()
}
