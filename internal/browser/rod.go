package browser

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/alnah/go-mdslides/internal/fileutil"
	"github.com/alnah/go-mdslides/internal/process"
)

var hostPage = template.Must(template.New("host").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<script src="{{.MermaidURL}}"></script>
<script src="{{.KaTeXURL}}"></script>
</head>
<body></body>
</html>
`))

// rodEvaluator evaluates scripts in a pool of pages sharing one browser.
// Pages are created lazily, up to cfg.PoolSize.
type rodEvaluator struct {
	cfg Config

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	hostPath string
	cleanup  func()
	pages    []*rod.Page
	idle     chan *rod.Page
	closed   bool
}

func newRodEvaluator(cfg Config) *rodEvaluator {
	return &rodEvaluator{
		cfg:  cfg,
		idle: make(chan *rod.Page, cfg.PoolSize),
	}
}

func (r *rodEvaluator) evaluate(ctx context.Context, js string, args ...any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := r.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer r.release(page)

	res, err := page.Context(ctx).Timeout(r.cfg.Timeout).Eval(js, args...)
	if err != nil {
		return "", renderError(err)
	}
	return res.Value.Str(), nil
}

// acquire gets an idle page, creating one if the pool is not full.
// Blocks if all pages are in use.
func (r *rodEvaluator) acquire(ctx context.Context) (*rod.Page, error) {
	select {
	case page, ok := <-r.idle:
		if !ok {
			return nil, ErrClosed
		}
		return page, nil
	default:
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if len(r.pages) < r.cfg.PoolSize {
		page, err := r.newPage()
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		r.pages = append(r.pages, page)
		r.mu.Unlock()
		return page, nil
	}
	r.mu.Unlock()

	select {
	case page, ok := <-r.idle:
		if !ok {
			return nil, ErrClosed
		}
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a page to the pool.
func (r *rodEvaluator) release(page *rod.Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.idle <- page
}

// newPage opens the host page. Caller holds r.mu.
func (r *rodEvaluator) newPage() (*rod.Page, error) {
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: fileutil.FileURL(r.hostPath)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	if err := page.Timeout(r.cfg.Timeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return page, nil
}

// ensureBrowser lazily launches and connects to the browser and writes the
// host page. Caller holds r.mu.
func (r *rodEvaluator) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	if r.hostPath == "" {
		var buf strings.Builder
		if err := hostPage.Execute(&buf, r.cfg); err != nil {
			return fmt.Errorf("rendering host page: %w", err)
		}
		path, cleanup, err := fileutil.WriteHostPage(buf.String())
		if err != nil {
			return err
		}
		r.hostPath, r.cleanup = path, cleanup
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher, r.browser = l, browser
	r.cfg.Logger.Debug("browser launched", zap.Int("pid", l.PID()))
	return nil
}

// Close closes pages and the browser, then kills the browser process group.
func (r *rodEvaluator) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.idle)
	pages, browser, l, cleanup := r.pages, r.browser, r.launcher, r.cleanup
	r.pages, r.browser, r.launcher = nil, nil, nil
	r.mu.Unlock()

	var err error
	for _, page := range pages {
		err = multierr.Append(err, page.Close())
	}
	if browser != nil {
		err = multierr.Append(err, browser.Close())
	}
	if l != nil {
		if pid := l.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		l.Kill()
	}
	if cleanup != nil {
		cleanup()
	}
	return err
}
