// Package session holds the current access credential and user profile.
//
// The store is an explicitly injected dependency of the HTTP client and the
// realtime channel rather than ambient process-wide state; components that
// need to react to session changes register a listener with Subscribe.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

// Session is a point-in-time snapshot of the stored credential and profile.
type Session struct {
	// AccessToken is the opaque bearer credential, or empty when logged out.
	// The client never inspects its structure, only its presence.
	AccessToken string

	// Profile is the user profile issued at login, or nil when logged out.
	Profile *model.User
}

// LoggedIn reports whether the session holds a credential.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}

// IsAdmin reports whether the session belongs to an admin user.
func (s Session) IsAdmin() bool {
	return s.Profile != nil && s.Profile.IsAdmin()
}

// Backend persists the two session slots (access token and serialized
// profile). The production backend is the system keyring; tests use an
// in-memory map.
type Backend interface {
	// Get returns the stored value for key, or ErrNotFound-style error
	// recognizable by the implementation when absent.
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Listener is notified with the new session snapshot after every change.
type Listener func(Session)

// Store owns the current session. Exactly one session exists at a time;
// setting a new credential replaces the previous one, and Clear empties
// both slots together.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	current   Session
	listeners []Listener
}

// Keys for the two backend slots.
const (
	keyAccessToken = "access_token"
	keyProfile     = "profile"
)

// NewStore creates a session store over the given backend and hydrates the
// in-memory snapshot from it. A backend read failure at startup is treated
// as a logged-out session, not an error: a missing credential is the normal
// first-run state.
func NewStore(backend Backend) *Store {
	s := &Store{backend: backend}

	token, err := backend.Get(keyAccessToken)
	if err == nil && token != "" {
		s.current.AccessToken = token
	}
	if raw, err := backend.Get(keyProfile); err == nil && raw != "" {
		var u model.User
		if json.Unmarshal([]byte(raw), &u) == nil {
			s.current.Profile = &u
		}
	}

	return s
}

// Current returns the session snapshot.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the current access credential, or empty when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.AccessToken
}

// LoggedIn reports whether a credential is currently stored.
func (s *Store) LoggedIn() bool {
	return s.Current().LoggedIn()
}

// IsAdmin reports whether the stored profile belongs to an admin user.
func (s *Store) IsAdmin() bool {
	return s.Current().IsAdmin()
}

// Profile returns the stored user profile, or nil when logged out.
func (s *Store) Profile() *model.User {
	return s.Current().Profile
}

// SetSession stores a new credential together with the user profile.
// Called by the login and registration-completion flows.
func (s *Store) SetSession(token string, profile *model.User) error {
	s.mu.Lock()

	if err := s.backend.Set(keyAccessToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persisting access token: %w", err)
	}
	if profile != nil {
		raw, err := json.Marshal(profile)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("serializing profile: %w", err)
		}
		if err := s.backend.Set(keyProfile, string(raw)); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("persisting profile: %w", err)
		}
	}

	s.current = Session{AccessToken: token, Profile: profile}
	snapshot := s.current
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// SetToken replaces only the credential, keeping the stored profile.
// Called by the refresh sequence after a successful silent renewal.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()

	if err := s.backend.Set(keyAccessToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persisting access token: %w", err)
	}

	s.current.AccessToken = token
	snapshot := s.current
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// Clear empties both slots together. Called on logout and on irrecoverable
// refresh failure. Backend delete errors are ignored so a logout always
// succeeds locally.
func (s *Store) Clear() {
	s.mu.Lock()

	_ = s.backend.Delete(keyAccessToken)
	_ = s.backend.Delete(keyProfile)
	s.current = Session{}
	s.mu.Unlock()

	s.notify(Session{})
}

// Subscribe registers a listener invoked with the new snapshot after every
// session change. Listeners are called outside the store lock.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(snapshot Session) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
