package enhance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDiagramDelay defers the diagram stage past code and math reflow.
const DefaultDiagramDelay = 140 * time.Millisecond

// Settings are the view settings a run renders with.
type Settings struct {
	SlideID     int
	ThemeID     string
	LineNumbers bool
}

// Enhancer runs the enhancement stages against views.
// An Enhancer is safe for concurrent use by multiple sessions.
type Enhancer struct {
	highlighter Highlighter
	math        MathRenderer
	diagrams    DiagramRenderer

	diagramDelay time.Duration
	diagramLimit int
	logger       *zap.Logger
	now          func() time.Time

	codeDegraded    sync.Once
	mathDegraded    sync.Once
	diagramDegraded sync.Once
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithHighlighter sets the code highlighting engine.
func WithHighlighter(h Highlighter) Option {
	return func(e *Enhancer) { e.highlighter = h }
}

// WithMathRenderer sets the math typesetting engine.
func WithMathRenderer(m MathRenderer) Option {
	return func(e *Enhancer) { e.math = m }
}

// WithDiagramRenderer sets the diagram engine.
func WithDiagramRenderer(d DiagramRenderer) Option {
	return func(e *Enhancer) { e.diagrams = d }
}

// WithDiagramDelay sets the delay before the diagram stage.
// Panics if d < 0 (programmer error, similar to time.NewTicker).
func WithDiagramDelay(d time.Duration) Option {
	if d < 0 {
		panic("enhance: WithDiagramDelay duration must not be negative")
	}
	return func(e *Enhancer) { e.diagramDelay = d }
}

// WithDiagramLimit caps concurrent diagram renders per slide.
func WithDiagramLimit(n int) Option {
	return func(e *Enhancer) {
		if n > 0 {
			e.diagramLimit = n
		}
	}
}

// WithLogger sets the logger used for degraded mode and render failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enhancer) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source for diagram session ids.
func WithClock(now func() time.Time) Option {
	return func(e *Enhancer) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Enhancer. Engines left unset run in degraded mode.
func New(opts ...Option) *Enhancer {
	e := &Enhancer{
		diagramDelay: DefaultDiagramDelay,
		diagramLimit: 4,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start enhances view. Code and math run before Start returns; diagrams
// run after the diagram delay. relevant may be nil.
//
// The returned task must be cancelled when the view is unmounted or its
// settings change.
func (e *Enhancer) Start(ctx context.Context, view *View, s Settings, relevant func() bool) *Task {
	task := newTask(ctx, relevant)

	e.enhanceCode(task, view, s)
	if task.Relevant() {
		e.enhanceMath(task, view)
	}

	if !task.Relevant() || countMatches(view, diagramSelector) == 0 {
		task.finish()
		return task
	}

	task.schedule(e.diagramDelay, func() {
		defer task.finish()
		e.enhanceDiagrams(task, view, s)
	})
	return task
}

// Run enhances view and waits for every stage, including diagrams.
func (e *Enhancer) Run(ctx context.Context, view *View, s Settings) error {
	task := e.Start(ctx, view, s, nil)
	select {
	case <-task.Done():
		return ctx.Err()
	case <-ctx.Done():
		task.Cancel()
		return ctx.Err()
	}
}

func (e *Enhancer) degraded(once *sync.Once, engine string) {
	once.Do(func() {
		e.logger.Warn("engine unavailable, rendering plain text", zap.String("engine", engine))
	})
}
