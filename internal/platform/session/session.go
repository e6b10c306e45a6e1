// Package session carries the authenticated identity explicitly through
// contexts and process state.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Session is the identity a page acts on behalf of.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session has a user and a token that has not
// expired at now.
func (s Session) Valid(now time.Time) bool {
	if strings.TrimSpace(s.UserID) == "" || strings.TrimSpace(s.Token) == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

type contextKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// UserIDFromContext returns the user identifier stored in ctx.
func UserIDFromContext(ctx context.Context) string {
	s, _ := FromContext(ctx)
	return s.UserID
}

// Holder owns the process session. It starts empty and is set or cleared by
// the login flow.
type Holder struct {
	mu      sync.RWMutex
	current Session
	set     bool
}

// NewHolder returns a holder seeded with initial when it has a token.
func NewHolder(initial Session) *Holder {
	h := &Holder{}
	if strings.TrimSpace(initial.Token) != "" {
		h.Set(initial)
	}
	return h
}

// Set replaces the current session.
func (h *Holder) Set(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = s
	h.set = true
}

// Clear drops the current session.
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = Session{}
	h.set = false
}

// Current returns the session and whether one is set.
func (h *Holder) Current() (Session, bool) {
	if h == nil {
		return Session{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, h.set
}

// Context attaches the current session to ctx when one is set.
func (h *Holder) Context(ctx context.Context) context.Context {
	s, ok := h.Current()
	if !ok {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return WithSession(ctx, s)
}
