package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Get for a key that has never been set.
var ErrNotFound = errors.New("setting not found")

// KeyValueStore is the persistence collaborator behind Settings. Values are
// plain strings; the store owns nothing about their meaning.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// NewKeyValueStore creates a store of the given type. Supported types:
// "sqlite" (connectionString is a file path or ":memory:") and "redis"
// (connectionString is a host:port address).
func NewKeyValueStore(storeType, connectionString string) (KeyValueStore, error) {
	var store KeyValueStore
	var err error

	switch storeType {
	case "sqlite":
		store, err = NewSQLiteStore(connectionString)
	case "redis":
		store, err = NewRedisStore(connectionString)
	default:
		return nil, fmt.Errorf("unsupported settings store: %s", storeType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}

	slog.Info("settings store initialized", "type", storeType)
	return store, nil
}
