package statesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/alnah/go-mdslides/internal/store"
)

// DefaultKey is the store key holding the shared state.
const DefaultKey = "mdslides.state"

// Store is the durable side of the replicated register.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Channel is the live side of the replicated register.
type Channel interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe() (messages <-chan []byte, cancel func())
}

// Synchronizer keeps one context's replica of the shared state.
type Synchronizer struct {
	id      string
	key     string
	store   Store
	channel Channel
	logger  *zap.Logger

	messages    <-chan []byte
	unsubscribe func()

	// publishMu orders writes: the store and the channel see updates in
	// the order they were applied locally.
	publishMu sync.Mutex

	mu      sync.Mutex
	state   State
	onApply func(State)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger for dropped payloads.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKey sets the store key.
func WithKey(key string) Option {
	return func(s *Synchronizer) { s.key = key }
}

// WithState sets the initial local state.
func WithState(st State) Option {
	return func(s *Synchronizer) { s.state = st }
}

// New creates a Synchronizer with a fresh source id and subscribes it to
// channel. Call Close to unsubscribe.
func New(st Store, channel Channel, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		id:      uuid.NewString(),
		key:     DefaultKey,
		store:   st,
		channel: channel,
		logger:  zap.NewNop(),
		state:   DefaultState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages, s.unsubscribe = channel.Subscribe()
	return s
}

// ID returns the source id stamped on outgoing messages.
func (s *Synchronizer) ID() string {
	return s.id
}

// State returns the current local state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnApply registers fn to be called with every applied remote state.
func (s *Synchronizer) OnApply(fn func(State)) {
	s.mu.Lock()
	s.onApply = fn
	s.mu.Unlock()
}

// Bootstrap loads the stored state. It reports whether a valid state was
// found; a missing or malformed record leaves the local state unchanged.
func (s *Synchronizer) Bootstrap(ctx context.Context) (bool, error) {
	raw, err := s.store.Load(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	st, err := DecodeState(raw)
	if err != nil {
		s.logger.Debug("ignoring stored state", zap.Error(err))
		return false, nil
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return true, nil
}

// Update applies fn to the local state, then persists and broadcasts the
// result. An invalid result is rejected and the state left unchanged.
// Both the store write and the broadcast are attempted.
func (s *Synchronizer) Update(ctx context.Context, fn func(*State)) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	next := s.state
	fn(&next)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.mu.Unlock()

	return s.publish(ctx, next)
}

// SetMarkdown replaces the document.
func (s *Synchronizer) SetMarkdown(ctx context.Context, markdown string) error {
	return s.Update(ctx, func(st *State) { st.Markdown = markdown })
}

// SetSlide moves to the zero-based slide index.
func (s *Synchronizer) SetSlide(ctx context.Context, index int) error {
	return s.Update(ctx, func(st *State) { st.CurrentSlide = index })
}

// SetTheme switches the theme.
func (s *Synchronizer) SetTheme(ctx context.Context, themeID string) error {
	return s.Update(ctx, func(st *State) { st.ThemeID = themeID })
}

func (s *Synchronizer) publish(ctx context.Context, st State) error {
	stateJSON, err := EncodeState(st)
	if err != nil {
		return err
	}
	msgJSON, err := EncodeMessage(Message{SourceID: s.id, State: st})
	if err != nil {
		return err
	}

	var errs error
	if err := s.store.Save(ctx, s.key, stateJSON); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("persisting state: %w", err))
	}
	if err := s.channel.Publish(ctx, msgJSON); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("broadcasting state: %w", err))
	}
	return errs
}

// Receive handles one broadcast payload. It reports whether the payload
// was applied; own messages and malformed payloads are dropped.
func (s *Synchronizer) Receive(raw []byte) bool {
	msg, err := DecodeMessage(raw)
	if err != nil {
		s.logger.Debug("dropping malformed message", zap.Error(err))
		return false
	}
	if msg.SourceID == s.id {
		return false
	}

	s.mu.Lock()
	s.state = msg.State
	onApply := s.onApply
	s.mu.Unlock()

	if onApply != nil {
		onApply(msg.State)
	}
	return true
}

// Run applies incoming messages until ctx is done or the channel closes.
func (s *Synchronizer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-s.messages:
			if !ok {
				return nil
			}
			s.Receive(raw)
		}
	}
}

// Close unsubscribes from the channel.
func (s *Synchronizer) Close() {
	s.unsubscribe()
}
