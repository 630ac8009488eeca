package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/enhance"
	"github.com/alnah/go-mdslides/internal/statesync"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 20
	sendBuffer     = 64
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()
	newSession(s, conn).run()
}

// session is one connected viewer. It keeps its own replica of the shared
// state and renders the current slide for it.
type session struct {
	srv    *Server
	conn   *websocket.Conn
	sync   *statesync.Synchronizer
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	send   chan []byte

	mu          sync.Mutex
	compiled    bool
	markdown    string
	slides      []mdslides.Slide
	state       statesync.State
	lineNumbers bool
	task        *enhance.Task
	pending     string
	debounce    *time.Timer

	// generation identifies the current render; frames from older renders
	// are dropped.
	generation atomic.Uint64
	// sendMu orders frame reads against the view with their enqueueing.
	sendMu sync.Mutex
}

func newSession(srv *Server, conn *websocket.Conn) *session {
	ctx, cancel := context.WithCancel(srv.ctx)
	s := &session{
		srv:         srv,
		conn:        conn,
		ctx:         ctx,
		cancel:      cancel,
		send:        make(chan []byte, sendBuffer),
		lineNumbers: srv.lineNumbers,
	}
	logger := srv.logger.Named("session")
	s.sync = statesync.New(srv.store, srv.bus,
		statesync.WithKey(srv.key),
		statesync.WithState(srv.sync.State()),
		statesync.WithLogger(logger))
	s.logger = logger.With(zap.String("id", s.sync.ID()))
	return s
}

// run serves the session until the connection or the server closes.
func (s *session) run() {
	defer s.close()
	s.logger.Debug("session opened", zap.String("remote", s.conn.RemoteAddr().String()))

	go s.writePump()
	go func() {
		<-s.ctx.Done()
		_ = s.conn.Close()
	}()

	if _, err := s.sync.Bootstrap(s.ctx); err != nil {
		s.logger.Warn("loading state", zap.Error(err))
	}
	s.sync.OnApply(func(st statesync.State) { s.apply(st, false) })
	s.apply(s.sync.State(), true)
	go func() {
		if err := s.sync.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("session sync stopped", zap.Error(err))
		}
	}()

	s.readPump()
}

func (s *session) close() {
	s.cancel()

	s.mu.Lock()
	if s.task != nil {
		s.task.Cancel()
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.mu.Unlock()

	s.sync.Close()
	s.logger.Debug("session closed")
}

func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("connection lost", zap.Error(err))
			}
			return
		}
		msg, err := decodeClientMessage(raw)
		if err != nil {
			s.sendError(err)
			continue
		}
		s.handle(msg)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("write failed", zap.Error(err))
				s.cancel()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.cancel()
				return
			}
		}
	}
}

func (s *session) handle(msg clientMessage) {
	switch msg.Type {
	case msgHello:
		// Only the keys the fragment actually carries override shared state.
		index, hasSlide := mdslides.LinkedSlide(msg.Fragment)
		themeID, hasTheme := mdslides.LinkedTheme(msg.Fragment)
		if !hasSlide && !hasTheme {
			return
		}
		n := s.slideCount()
		s.update(func(st *statesync.State) {
			if hasSlide {
				st.CurrentSlide = mdslides.ClampSlide(index, n)
			}
			if hasTheme {
				st.ThemeID = themeID
			}
		})

	case msgEdit:
		s.scheduleEdit(*msg.Markdown)

	case msgGoto:
		n := s.slideCount()
		s.update(func(st *statesync.State) {
			st.CurrentSlide = mdslides.ClampSlide(*msg.Slide, n)
		})

	case msgTheme:
		if !mdslides.IsValidTheme(msg.ThemeID) {
			s.sendError(fmt.Errorf("%w: %q", mdslides.ErrUnknownTheme, msg.ThemeID))
			return
		}
		s.update(func(st *statesync.State) { st.ThemeID = msg.ThemeID })

	case msgLineNumbers:
		s.mu.Lock()
		s.lineNumbers = msg.Enabled
		s.mu.Unlock()
		s.apply(s.sync.State(), true)
	}
}

// update changes the shared state and renders the result locally; the
// synchronizer does not echo our own broadcast back.
func (s *session) update(fn func(*statesync.State)) {
	if err := s.sync.Update(s.ctx, fn); err != nil {
		s.logger.Warn("state update failed", zap.Error(err))
		s.sendError(err)
	}
	s.apply(s.sync.State(), false)
}

func (s *session) slideCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slides)
}

// scheduleEdit recompiles markdown once no edit has arrived for the
// debounce period.
func (s *session) scheduleEdit(markdown string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = markdown
	if s.debounce == nil {
		s.debounce = time.AfterFunc(s.srv.editDebounce, s.flushEdit)
		return
	}
	s.debounce.Reset(s.srv.editDebounce)
}

func (s *session) flushEdit() {
	if s.ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	markdown := s.pending
	s.mu.Unlock()

	n := len(mdslides.Compile(markdown))
	s.update(func(st *statesync.State) {
		st.Markdown = markdown
		st.CurrentSlide = mdslides.ClampSlide(st.CurrentSlide, n)
	})
}

// apply shows st. The document is recompiled only when it changed and the
// slide is re-enhanced only when what it renders with changed, unless
// force is set.
func (s *session) apply(st statesync.State, force bool) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}

	if !s.compiled || st.Markdown != s.markdown {
		slides, err := s.srv.deck.Compile(s.ctx, st.Markdown)
		if err != nil {
			s.mu.Unlock()
			return
		}
		s.slides, s.markdown, s.compiled = slides, st.Markdown, true
		force = true
	}
	st.CurrentSlide = mdslides.ClampSlide(st.CurrentSlide, len(s.slides))
	if !force && st == s.state {
		s.mu.Unlock()
		return
	}
	s.state = st

	s.pushState()
	job := s.nextRender()
	s.mu.Unlock()

	s.startRender(job)
}

// renderJob is what one enhancement of the current slide needs.
type renderJob struct {
	gen      uint64
	slide    mdslides.Slide
	settings enhance.Settings
}

// nextRender cancels the running enhancement and claims a new generation
// for the current slide. Callers hold s.mu.
func (s *session) nextRender() renderJob {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
	slide := s.slides[s.state.CurrentSlide]
	return renderJob{
		gen:   s.generation.Add(1),
		slide: slide,
		settings: enhance.Settings{
			SlideID:     slide.ID,
			ThemeID:     s.state.ThemeID,
			LineNumbers: s.lineNumbers,
		},
	}
}

// startRender enhances job's slide. It runs without s.mu: the code and math
// stages can wait on the browser, and gotos must not queue behind them.
func (s *session) startRender(job renderJob) {
	view, err := enhance.NewView(job.slide.HTML)
	if err != nil {
		s.sendError(err)
		return
	}
	notes, err := s.srv.deck.NotesHTML(s.ctx, job.slide)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Warn("rendering notes", zap.Int("slide", job.slide.ID), zap.Error(err))
		notes = ""
	}

	// Writes made before Start returns go out in the first frame.
	var started atomic.Bool
	view.OnChange(func(string) {
		if started.Load() {
			s.pushSlide(job.gen, job.slide, view, notes)
		}
	})
	relevant := func() bool { return s.generation.Load() == job.gen }
	task := s.srv.deck.Enhancer().Start(s.ctx, view, job.settings, relevant)
	started.Store(true)

	s.mu.Lock()
	if !relevant() || s.ctx.Err() != nil {
		s.mu.Unlock()
		task.Cancel()
		return
	}
	s.task = task
	s.mu.Unlock()

	s.pushSlide(job.gen, job.slide, view, notes)
}

// pushSlide sends the current markup of view unless a newer render has
// started. The markup is read under sendMu, so the last frame queued for
// a render always holds its latest write.
func (s *session) pushSlide(gen uint64, slide mdslides.Slide, view *enhance.View, notes string) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.generation.Load() != gen {
		return
	}
	s.enqueue(slideFrame{
		Type:  frameSlide,
		Index: slide.ID,
		Title: slide.Title,
		HTML:  view.HTML(),
		Notes: notes,
	})
}

// pushState sends the displayed state. Callers hold s.mu.
func (s *session) pushState() {
	link := mdslides.DeepLink{SlideIndex: s.state.CurrentSlide, ThemeID: s.state.ThemeID}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.enqueue(stateFrame{
		Type:        frameState,
		State:       s.state,
		SlideCount:  len(s.slides),
		Titles:      mdslides.Titles(s.slides),
		Fragment:    link.Fragment(),
		LineNumbers: s.lineNumbers,
	})
}

func (s *session) sendError(err error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.enqueue(errorFrame{Type: frameError, Message: err.Error()})
}

// enqueue queues v for the write pump. Callers hold sendMu.
func (s *session) enqueue(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding frame", zap.Error(err))
		return
	}
	select {
	case s.send <- frame:
	case <-s.ctx.Done():
	}
}
