// Package settings holds the externally persisted configuration surface of
// the admin client: the backend base URL and the admin bearer token.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultAPIDomain is used until an operator configures another backend.
const DefaultAPIDomain = "https://api.swabcity.shop"

const (
	keyAPIDomain   = "apiDomain"
	keyAdminAPIKey = "adminApiKey"
)

// Settings exposes the two admin-client settings backed by an injected
// KeyValueStore. Setters persist immediately; readers are safe to call from
// any goroutine. Settings satisfies the store's Credentials interface.
type Settings struct {
	store KeyValueStore

	mu          sync.RWMutex
	apiDomain   string
	adminAPIKey string
}

// New returns settings with defaults applied; call Load to pick up
// persisted values.
func New(store KeyValueStore) *Settings {
	return &Settings{
		store:     store,
		apiDomain: DefaultAPIDomain,
	}
}

// Load reads persisted values from the store. Keys that were never saved
// keep their defaults.
func (s *Settings) Load(ctx context.Context) error {
	apiDomain, err := s.store.Get(ctx, keyAPIDomain)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to load %s: %w", keyAPIDomain, err)
	}
	adminAPIKey, keyErr := s.store.Get(ctx, keyAdminAPIKey)
	if keyErr != nil && !errors.Is(keyErr, ErrNotFound) {
		return fmt.Errorf("failed to load %s: %w", keyAdminAPIKey, keyErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.apiDomain = apiDomain
	}
	if keyErr == nil {
		s.adminAPIKey = adminAPIKey
	}
	return nil
}

// APIDomain returns the configured backend base URL.
func (s *Settings) APIDomain() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiDomain
}

// AdminAPIKey returns the configured bearer token, empty when unset.
func (s *Settings) AdminAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminAPIKey
}

// SetAPIDomain updates and persists the backend base URL.
func (s *Settings) SetAPIDomain(ctx context.Context, apiDomain string) error {
	if err := s.store.Set(ctx, keyAPIDomain, apiDomain); err != nil {
		return fmt.Errorf("failed to save %s: %w", keyAPIDomain, err)
	}
	s.mu.Lock()
	s.apiDomain = apiDomain
	s.mu.Unlock()
	return nil
}

// SetAdminAPIKey updates and persists the bearer token.
func (s *Settings) SetAdminAPIKey(ctx context.Context, adminAPIKey string) error {
	if err := s.store.Set(ctx, keyAdminAPIKey, adminAPIKey); err != nil {
		return fmt.Errorf("failed to save %s: %w", keyAdminAPIKey, err)
	}
	s.mu.Lock()
	s.adminAPIKey = adminAPIKey
	s.mu.Unlock()
	return nil
}
