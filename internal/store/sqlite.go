package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

const upsertKV = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP;`

// SQLite stores values in a single kv table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating database directory: %v", ErrOpen, err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if _, err := db.Exec(createKVTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: creating kv table: %v", ErrOpen, err)
	}
	return &SQLite{db: db}, nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return value, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertKV, key, value); err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
