// Package broadcast provides an in-process pub/sub channel shared by every
// session of a server.
package broadcast

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing to a closed Bus.
var ErrClosed = errors.New("broadcast bus closed")

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Bus fans out every published payload to all current subscribers.
// A subscriber whose queue is full misses the payload; Publish never blocks
// on a slow subscriber.
type Bus struct {
	logger *zap.Logger
	buffer int

	nextID atomic.Uint64
	subs   *xsync.MapOf[uint64, *subscriber]

	// mu is held for writing while a subscriber channel is closed, so
	// Publish never sends on a closed channel.
	mu     sync.RWMutex
	closed bool
}

type subscriber struct {
	ch   chan []byte
	once sync.Once
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger for dropped messages.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// New creates a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		logger: zap.NewNop(),
		buffer: DefaultBuffer,
		subs:   xsync.NewMapOf[uint64, *subscriber](),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers a copy of payload to every subscriber.
func (b *Bus) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	b.subs.Range(func(id uint64, sub *subscriber) bool {
		select {
		case sub.ch <- slices.Clone(payload):
		default:
			b.logger.Debug("subscriber queue full, message dropped", zap.Uint64("subscriber", id))
		}
		return true
	})
	return nil
}

// Subscribe registers a new subscriber. Payloads published after Subscribe
// returns are delivered on the channel until cancel is called or the bus is
// closed, which closes the channel.
func (b *Bus) Subscribe() (messages <-chan []byte, cancel func()) {
	sub := &subscriber{ch: make(chan []byte, b.buffer)}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := b.nextID.Add(1)
	b.subs.Store(id, sub)
	return sub.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs.LoadAndDelete(id); ok {
			sub.close()
		}
	}
}

// Subscribers returns the number of live subscribers.
func (b *Bus) Subscribers() int {
	return b.subs.Size()
}

// Close closes every subscriber channel. Later publishes fail with ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	b.subs.Range(func(id uint64, sub *subscriber) bool {
		sub.close()
		b.subs.Delete(id)
		return true
	})
	return nil
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}
