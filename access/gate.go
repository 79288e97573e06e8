// Package access guards admin actions behind a single shared secret.
//
// The Gate is a deterrent for casual visitors, not a security boundary: the
// document store itself accepts unauthenticated writes.
package access

import (
	"crypto/subtle"
	"errors"
)

var (
	// ErrAuthDenied means a secret was given and it was wrong.
	ErrAuthDenied = errors.New("incorrect password")
	// ErrCancelled means no secret was given; the action is dropped quietly.
	ErrCancelled = errors.New("no password given")
)

// Gate compares operator-entered secrets against the configured one.
type Gate struct {
	secret string
}

// NewGate returns a Gate for secret. An empty secret authorizes nothing.
func NewGate(secret string) Gate {
	return Gate{secret: secret}
}

// Authorize reports whether candidate is exactly the configured secret.
func (g Gate) Authorize(candidate string) bool {
	if g.secret == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.secret)) == 1
}

// Check is Authorize with a reason: ErrCancelled for an empty candidate,
// ErrAuthDenied for a wrong one.
func (g Gate) Check(candidate string) error {
	if candidate == "" {
		return ErrCancelled
	}
	if !g.Authorize(candidate) {
		return ErrAuthDenied
	}
	return nil
}
