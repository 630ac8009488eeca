package store

import (
	"context"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Memory keeps values in process memory. Values do not survive a restart.
type Memory struct {
	m *xsync.MapOf[string, []byte]
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{m: xsync.NewMapOf[string, []byte]()}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := m.m.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.m.Store(key, slices.Clone(value))
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
