// Package store provides durable key/value storage for shared deck state.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Sentinel errors for storage operations.
var (
	ErrNotFound       = errors.New("key not found")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrOpen           = errors.New("failed to open store")
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Store is a durable keyed store.
type Store interface {
	// Load returns the value stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Path is the SQLite file or the Badger directory.
	Path string
}

// Open opens the backend named by cfg.Backend.
func Open(cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case BackendSQLite:
		return OpenSQLite(cfg.Path)
	case BackendBadger:
		return OpenBadger(cfg.Path, logger.Named("badger"))
	case BackendMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
