// Package session holds the terminal client's authentication state: the
// persisted token and the guard deciding whether protected views may open.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State is the client authentication state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// ErrLoginRequired is returned by Guard when a protected view must redirect to login.
var ErrLoginRequired = errors.New("login required")

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session tracks the Anonymous/Authenticated state machine. A session is
// Authenticated while it holds a token whose exp claim is still in the future.
// The signature is not checked here; the server stays the authority.
type Session struct {
	mu    sync.Mutex
	store TokenStore
	token string
	now   func() time.Time
}

// Open restores the session persisted in store.
func Open(store TokenStore) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{store: store, token: token, now: time.Now}, nil
}

// State evaluates the guard predicate. An expired token is discarded.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.token == "" {
		return Anonymous
	}
	if _, err := expiry(s.token, s.now()); err != nil {
		s.token = ""
		_ = s.store.Clear()
		return Anonymous
	}
	return Authenticated
}

// Guard returns ErrLoginRequired unless the session is Authenticated.
func (s *Session) Guard() error {
	if s.State() != Authenticated {
		return ErrLoginRequired
	}
	return nil
}

// Token returns the current token, or "" when the session is Anonymous.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateLocked() != Authenticated {
		return ""
	}
	return s.token
}

// ExpiresAt returns the token expiry of an Authenticated session.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return time.Time{}, false
	}
	exp, err := expiry(s.token, s.now())
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}

// Login moves the session to Authenticated and persists token.
func (s *Session) Login(token string) error {
	if _, err := expiry(token, s.now()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Logout moves the session to Anonymous and removes the persisted token.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.store.Clear()
}

// expiry reads the exp claim without verifying the signature and fails when
// the claim is missing or not after now.
func expiry(token string, now time.Time) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("session: unreadable token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("session: token has no expiry")
	}
	exp := claims.ExpiresAt.Time
	if !exp.After(now) {
		return time.Time{}, errors.New("session: token expired")
	}
	return exp, nil
}
