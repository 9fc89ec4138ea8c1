package settings

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) KeyValueStore {
	t.Helper()

	kv, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSettings_DefaultsWithoutPersistedValues(t *testing.T) {
	s := New(newTestStore(t))

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.APIDomain() != DefaultAPIDomain {
		t.Errorf("expected default domain %q, got %q", DefaultAPIDomain, s.APIDomain())
	}
	if s.AdminAPIKey() != "" {
		t.Errorf("expected empty default api key, got %q", s.AdminAPIKey())
	}
}

func TestSettings_SettersPersistImmediately(t *testing.T) {
	kv := newTestStore(t)
	ctx := context.Background()

	s := New(kv)
	if err := s.SetAPIDomain(ctx, "https://staging.swabcity.shop"); err != nil {
		t.Fatalf("SetAPIDomain error: %v", err)
	}
	if err := s.SetAdminAPIKey(ctx, "token-123"); err != nil {
		t.Fatalf("SetAdminAPIKey error: %v", err)
	}

	// A fresh Settings over the same store sees the persisted values
	reloaded := New(kv)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.APIDomain() != "https://staging.swabcity.shop" {
		t.Errorf("domain not persisted, got %q", reloaded.APIDomain())
	}
	if reloaded.AdminAPIKey() != "token-123" {
		t.Errorf("api key not persisted, got %q", reloaded.AdminAPIKey())
	}
}

func TestNewKeyValueStore_UnsupportedType(t *testing.T) {
	if _, err := NewKeyValueStore("etcd", "whatever"); err == nil {
		t.Fatalf("expected error for unsupported store type")
	}
}

func TestNewKeyValueStore_SQLite(t *testing.T) {
	kv, err := NewKeyValueStore("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewKeyValueStore error: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	if _, err := kv.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
