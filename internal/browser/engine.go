package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for browser rendering.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRender         = errors.New("browser render failed")
	ErrClosed         = errors.New("browser engine closed")
)

// Defaults for Config fields left empty.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultPoolSize   = 2
	DefaultMermaidURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
	DefaultKaTeXURL   = "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.js"
)

const mermaidScript = `async (id, source, theme) => {
	mermaid.initialize({ startOnLoad: false, securityLevel: "strict", theme: theme });
	const { svg } = await mermaid.render(id, source);
	return svg;
}`

const checkScript = `() => [typeof mermaid, typeof katex].join(",")`

const katexScript = `(expr, display) => katex.renderToString(expr, { displayMode: display, throwOnError: true })`

// Config configures an Engine.
type Config struct {
	Timeout    time.Duration
	PoolSize   int
	MermaidURL string
	KaTeXURL   string
	// MermaidTheme maps a deck theme id to a Mermaid theme name.
	MermaidTheme func(themeID string) string
	Logger       *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PoolSize < 1 {
		c.PoolSize = DefaultPoolSize
	}
	if c.MermaidURL == "" {
		c.MermaidURL = DefaultMermaidURL
	}
	if c.KaTeXURL == "" {
		c.KaTeXURL = DefaultKaTeXURL
	}
	if c.MermaidTheme == nil {
		c.MermaidTheme = func(string) string { return "default" }
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// evaluator runs a JavaScript function in a loaded host page and returns
// its string result.
type evaluator interface {
	evaluate(ctx context.Context, js string, args ...any) (string, error)
	Close() error
}

// Engine renders Mermaid diagrams and KaTeX math in headless Chrome.
// It is safe for concurrent use.
type Engine struct {
	cfg  Config
	eval evaluator
}

// New creates an Engine. No browser is started until the first render.
func New(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{cfg: cfg, eval: newRodEvaluator(cfg)}
}

// RenderDiagram renders Mermaid source to SVG markup.
func (e *Engine) RenderDiagram(ctx context.Context, id, source, themeID string) (string, error) {
	svg, err := e.eval.evaluate(ctx, mermaidScript, id, source, e.cfg.MermaidTheme(themeID))
	if err != nil {
		return "", err
	}
	e.cfg.Logger.Debug("diagram rendered", zap.String("id", id), zap.Int("bytes", len(svg)))
	return svg, nil
}

// RenderMath typesets expr with KaTeX.
func (e *Engine) RenderMath(expr string, display bool) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout)
	defer cancel()
	return e.eval.evaluate(ctx, katexScript, expr, display)
}

// Check launches the browser if needed and verifies that both engine
// scripts loaded into the host page.
func (e *Engine) Check(ctx context.Context) error {
	got, err := e.eval.evaluate(ctx, checkScript)
	if err != nil {
		return err
	}
	if got != "object,object" {
		return fmt.Errorf("%w: engine scripts not loaded (mermaid, katex = %s)", ErrPageLoad, got)
	}
	return nil
}

// Close releases browser resources.
func (e *Engine) Close() error {
	if e.eval != nil {
		return e.eval.Close()
	}
	return nil
}

func renderError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRender, err)
}
