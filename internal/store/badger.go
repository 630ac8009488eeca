package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger"
	"go.uber.org/zap"
)

// Badger stores values in a badger database directory.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens or creates the database in dir.
func OpenBadger(dir string, logger *zap.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{l: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return &Badger{db: db}, nil
}

// Load implements Store.
func (b *Badger) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return value, nil
}

// Save implements Store.
func (b *Badger) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

type badgerLogger struct {
	l *zap.Logger
}

func (l badgerLogger) Errorf(msg string, args ...any) {
	l.l.Error(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Warningf(msg string, args ...any) {
	l.l.Warn(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Infof(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Debugf(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}

var _ Store = (*Badger)(nil)
