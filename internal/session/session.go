package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultKey is the durable key of the terminal client's session.
const DefaultKey = "user"

// ErrNotLoggedIn is returned when an operation needs a session and none
// exists.
var ErrNotLoggedIn = errors.New("not logged in")

// Session mirrors one durable key in memory. The key holds the logged-in
// username; its absence means logged out. Mutations go to durable storage
// first so memory never claims a login the store does not have.
type Session struct {
	store Store
	key   string

	mu       sync.RWMutex
	username string
}

// New binds a session to key in store.
func New(store Store, key string) *Session {
	return &Session{store: store, key: key}
}

// Key returns the durable key backing this session.
func (s *Session) Key() string { return s.key }

// Login records username as authenticated.
func (s *Session) Login(ctx context.Context, username string) error {
	if err := s.store.Set(ctx, s.key, username); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	s.mu.Lock()
	s.username = username
	s.mu.Unlock()
	return nil
}

// Logout removes the durable record and clears memory.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.mu.Lock()
	s.username = ""
	s.mu.Unlock()
	return nil
}

// Restore loads the durable record into memory. It reports the username
// and whether one was present.
func (s *Session) Restore(ctx context.Context) (string, bool, error) {
	username, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return "", false, fmt.Errorf("restoring session: %w", err)
	}
	if username == "" {
		ok = false
	}
	s.mu.Lock()
	s.username = username
	s.mu.Unlock()
	return username, ok, nil
}

// Username returns the logged-in user held in memory.
func (s *Session) Username() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.username != ""
}
