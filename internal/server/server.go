// Package server serves the live editor, the presenter view and the state
// API, and runs one synchronized session per WebSocket connection.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/broadcast"
	"github.com/alnah/go-mdslides/internal/statesync"
)

// Defaults.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultEditDebounce    = 250 * time.Millisecond
	DefaultShutdownTimeout = 5 * time.Second
	DefaultTitle           = "mdslides"
)

const readHeaderTimeout = 10 * time.Second

// Server serves one shared deck to any number of viewers.
type Server struct {
	deck   *mdslides.Deck
	store  statesync.Store
	bus    *broadcast.Bus
	sync   *statesync.Synchronizer
	logger *zap.Logger

	addr            string
	key             string
	title           string
	editDebounce    time.Duration
	shutdownTimeout time.Duration
	lineNumbers     bool
	initial         statesync.State

	router   *mux.Router
	upgrader websocket.Upgrader

	// ctx bounds the server synchronizer and every session.
	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address used by ListenAndServe.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithKey sets the store key of the shared state.
func WithKey(key string) Option {
	return func(s *Server) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// WithEditDebounce sets the delay between the last keystroke and the
// recompile. Panics if d < 0 (programmer error, similar to time.NewTicker).
func WithEditDebounce(d time.Duration) Option {
	if d < 0 {
		panic("server: WithEditDebounce duration must not be negative")
	}
	return func(s *Server) { s.editDebounce = d }
}

// WithShutdownTimeout sets the grace period for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInitialMarkdown seeds the document when the store holds no state.
func WithInitialMarkdown(markdown string) Option {
	return func(s *Server) { s.initial.Markdown = markdown }
}

// WithTheme seeds the theme when the store holds no state.
// Unknown themes are ignored.
func WithTheme(themeID string) Option {
	return func(s *Server) {
		if mdslides.IsValidTheme(themeID) {
			s.initial.ThemeID = themeID
		}
	}
}

// WithLineNumbers sets the line-number default of new sessions.
func WithLineNumbers(enabled bool) Option {
	return func(s *Server) { s.lineNumbers = enabled }
}

// New creates a Server for deck, persisting shared state in st.
func New(deck *mdslides.Deck, st statesync.Store, opts ...Option) *Server {
	s := &Server{
		deck:            deck,
		store:           st,
		logger:          zap.NewNop(),
		addr:            DefaultAddr,
		key:             statesync.DefaultKey,
		title:           DefaultTitle,
		editDebounce:    DefaultEditDebounce,
		shutdownTimeout: DefaultShutdownTimeout,
		initial:         statesync.DefaultState(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.bus = broadcast.New(broadcast.WithLogger(s.logger.Named("bus")))
	s.sync = statesync.New(s.store, s.bus,
		statesync.WithKey(s.key),
		statesync.WithState(s.initial),
		statesync.WithLogger(s.logger.Named("sync")))
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleEditor).Methods(http.MethodGet)
	r.HandleFunc("/presenter", s.handlePresenter).Methods(http.MethodGet)
	r.HandleFunc("/themes/{id:[a-z0-9-]+}.css", s.handleThemeCSS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleGetState).Methods(http.MethodGet)
	api.HandleFunc("/state", s.handlePutState).Methods(http.MethodPut)
	api.HandleFunc("/slides", s.handleListSlides).Methods(http.MethodGet)
	api.HandleFunc("/slides/{n:[0-9]+}", s.handleGetSlide).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// State returns the shared state as last seen by the server.
func (s *Server) State() statesync.State {
	return s.sync.State()
}

// Bootstrap loads the shared state from the store, seeding it with the
// initial document when none is stored, and starts following updates.
func (s *Server) Bootstrap(ctx context.Context) error {
	found, err := s.sync.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if !found {
		// An empty update persists the seeded state.
		if err := s.sync.Update(ctx, func(*statesync.State) {}); err != nil {
			return err
		}
	}
	s.logger.Debug("state ready",
		zap.Bool("restored", found),
		zap.Int("slide", s.sync.State().CurrentSlide),
		zap.String("theme", s.sync.State().ThemeID))

	go func() {
		if err := s.sync.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("server sync stopped", zap.Error(err))
		}
	}()
	return nil
}

// LoadDocument replaces the shared document. The theme is kept and the
// slide position is clamped to the new document.
func (s *Server) LoadDocument(ctx context.Context, markdown string) error {
	n := len(mdslides.Compile(markdown))
	return s.sync.Update(ctx, func(st *statesync.State) {
		st.Markdown = markdown
		st.CurrentSlide = mdslides.ClampSlide(st.CurrentSlide, n)
	})
}

// ListenAndServe listens on the configured address and serves until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully and closes every session.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", ln.Addr().String()))
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return multierr.Append(err, s.Close())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = multierr.Append(errs, err)
	}
	return multierr.Append(errs, s.Close())
}

// Close ends every session and releases the bus. It does not close the
// deck or the store, which belong to the caller.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.sessions.Wait()
		s.sync.Close()
		s.closeErr = s.bus.Close()
	})
	return s.closeErr
}
