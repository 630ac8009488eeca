package mdslides

import (
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdslides/internal/enhance"
)

// Engine contracts, re-exported so callers can plug their own engines into
// a Deck.
type (
	// Highlighter turns source code into highlighted markup.
	Highlighter = enhance.Highlighter
	// MathRenderer typesets one TeX expression.
	MathRenderer = enhance.MathRenderer
	// DiagramRenderer renders diagram source to markup.
	DiagramRenderer = enhance.DiagramRenderer
	// EnhanceSettings are the view settings one enhancement run uses.
	EnhanceSettings = enhance.Settings
)

// MathEngine selects how math expressions are typeset.
type MathEngine string

const (
	// MathMarkup emits \(…\) and \[…\] markup for typesetting in the
	// viewer's browser.
	MathMarkup MathEngine = "markup"
	// MathKaTeX typesets on the server with KaTeX in headless Chrome.
	MathKaTeX MathEngine = "katex"
	// MathNone leaves math text as written.
	MathNone MathEngine = "none"
)

// Defaults applied by NewDeck.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultPoolSize = 2
)

// Option configures a Deck.
type Option func(*deckConfig)

type deckConfig struct {
	timeout      time.Duration
	poolSize     int
	browser      bool
	math         MathEngine
	mermaidURL   string
	katexURL     string
	diagramDelay time.Duration
	assetsPath   string
	logger       *zap.Logger

	highlighter Highlighter
	mathEngine  MathRenderer
	diagrams    DiagramRenderer
}

func defaultDeckConfig() deckConfig {
	return deckConfig{
		timeout:      DefaultTimeout,
		poolSize:     DefaultPoolSize,
		browser:      true,
		math:         MathMarkup,
		diagramDelay: enhance.DefaultDiagramDelay,
		logger:       zap.NewNop(),
	}
}

// WithTimeout sets the per-render timeout of the browser engines.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdslides: WithTimeout duration must be positive")
	}
	return func(c *deckConfig) { c.timeout = d }
}

// WithPoolSize sets how many browser pages render concurrently.
// Panics if n < 1.
func WithPoolSize(n int) Option {
	if n < 1 {
		panic("mdslides: WithPoolSize must be at least 1")
	}
	return func(c *deckConfig) { c.poolSize = n }
}

// WithBrowser enables or disables headless Chrome. Without it diagrams are
// shown as source.
func WithBrowser(enabled bool) Option {
	return func(c *deckConfig) { c.browser = enabled }
}

// WithMath selects the math engine.
func WithMath(m MathEngine) Option {
	return func(c *deckConfig) { c.math = m }
}

// WithScriptURLs overrides the Mermaid and KaTeX script locations loaded
// into the browser host page. Empty values keep the defaults.
func WithScriptURLs(mermaidURL, katexURL string) Option {
	return func(c *deckConfig) {
		if mermaidURL != "" {
			c.mermaidURL = mermaidURL
		}
		if katexURL != "" {
			c.katexURL = katexURL
		}
	}
}

// WithDiagramDelay sets the delay between math and the diagram stage.
// Panics if d < 0.
func WithDiagramDelay(d time.Duration) Option {
	if d < 0 {
		panic("mdslides: WithDiagramDelay duration must not be negative")
	}
	return func(c *deckConfig) { c.diagramDelay = d }
}

// WithAssetsPath loads theme stylesheets and page templates from dir before
// falling back to the built-in ones.
func WithAssetsPath(dir string) Option {
	return func(c *deckConfig) { c.assetsPath = dir }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *deckConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHighlighter replaces the chroma highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(c *deckConfig) { c.highlighter = h }
}

// WithMathRenderer replaces the math engine chosen by WithMath.
func WithMathRenderer(m MathRenderer) Option {
	return func(c *deckConfig) { c.mathEngine = m }
}

// WithDiagramRenderer replaces the browser diagram engine.
func WithDiagramRenderer(d DiagramRenderer) Option {
	return func(c *deckConfig) { c.diagrams = d }
}
