package mdslides

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdslides/internal/assets"
	"github.com/alnah/go-mdslides/internal/browser"
	"github.com/alnah/go-mdslides/internal/enhance"
	"github.com/alnah/go-mdslides/internal/highlight"
	"github.com/alnah/go-mdslides/internal/mathtex"
	"github.com/alnah/go-mdslides/internal/pipeline"
)

// AssetLoader loads theme stylesheets and page templates.
type AssetLoader = assets.AssetLoader

// Deck owns the compiler, the enhancement engines and the assets used to
// present a Markdown deck. It is safe for concurrent use.
type Deck struct {
	cfg      deckConfig
	compiler *Compiler
	chroma   *highlight.Chroma
	notes    *pipeline.NotesConverter
	browser  *browser.Engine
	enhancer *enhance.Enhancer
	assets   AssetLoader
}

// NewDeck creates a Deck. Headless Chrome is not started until the first
// diagram or KaTeX expression needs it.
func NewDeck(opts ...Option) (*Deck, error) {
	cfg := defaultDeckConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	switch cfg.math {
	case MathMarkup, MathKaTeX, MathNone:
	default:
		return nil, fmt.Errorf("%w: math engine %q", ErrInvalidOption, cfg.math)
	}
	if cfg.math == MathKaTeX && !cfg.browser && cfg.mathEngine == nil {
		return nil, fmt.Errorf("%w: katex math needs the browser engine", ErrInvalidOption)
	}

	loader, err := assets.NewAssetResolver(cfg.assetsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetPath, err)
	}

	d := &Deck{
		cfg:      cfg,
		compiler: NewCompiler(),
		chroma:   highlight.New(chromaStyle),
		notes:    pipeline.NewNotesConverter(ResolveTheme(DefaultThemeID).ChromaStyle),
		assets:   loader,
	}

	needBrowser := cfg.diagrams == nil || (cfg.math == MathKaTeX && cfg.mathEngine == nil)
	if cfg.browser && needBrowser {
		d.browser = browser.New(browser.Config{
			Timeout:      cfg.timeout,
			PoolSize:     cfg.poolSize,
			MermaidURL:   cfg.mermaidURL,
			KaTeXURL:     cfg.katexURL,
			MermaidTheme: mermaidTheme,
			Logger:       cfg.logger.Named("browser"),
		})
	}

	enhanceOpts := []enhance.Option{
		enhance.WithDiagramDelay(cfg.diagramDelay),
		enhance.WithDiagramLimit(cfg.poolSize),
		enhance.WithLogger(cfg.logger.Named("enhance")),
	}
	if cfg.highlighter != nil {
		enhanceOpts = append(enhanceOpts, enhance.WithHighlighter(cfg.highlighter))
	} else {
		enhanceOpts = append(enhanceOpts, enhance.WithHighlighter(d.chroma))
	}
	if m := d.mathRenderer(); m != nil {
		enhanceOpts = append(enhanceOpts, enhance.WithMathRenderer(m))
	}
	if cfg.diagrams != nil {
		enhanceOpts = append(enhanceOpts, enhance.WithDiagramRenderer(cfg.diagrams))
	} else if d.browser != nil {
		enhanceOpts = append(enhanceOpts, enhance.WithDiagramRenderer(d.browser))
	}
	d.enhancer = enhance.New(enhanceOpts...)

	cfg.logger.Debug("deck ready",
		zap.Bool("browser", d.browser != nil),
		zap.String("math", string(cfg.math)),
		zap.Bool("customAssets", cfg.assetsPath != ""))

	return d, nil
}

// mathRenderer returns nil when math is left as text.
func (d *Deck) mathRenderer() MathRenderer {
	if d.cfg.mathEngine != nil {
		return d.cfg.mathEngine
	}
	switch d.cfg.math {
	case MathMarkup:
		return mathtex.NewMarkupRenderer()
	case MathKaTeX:
		if d.browser != nil {
			return d.browser
		}
	}
	return nil
}

func chromaStyle(themeID string) string { return ResolveTheme(themeID).ChromaStyle }

func mermaidTheme(themeID string) string { return ResolveTheme(themeID).MermaidTheme }

// Compile compiles doc into slides.
func (d *Deck) Compile(ctx context.Context, doc string) ([]Slide, error) {
	return d.compiler.Compile(ctx, doc)
}

// Enhancer returns the enhancer used by live sessions.
func (d *Deck) Enhancer() *enhance.Enhancer {
	return d.enhancer
}

// Assets returns the loader for stylesheets and page templates.
func (d *Deck) Assets() AssetLoader {
	return d.assets
}

// Enhance runs every enhancement stage on a copy of the slide HTML and
// returns the result. Engine failures are rendered into the markup; only
// context errors are returned.
func (d *Deck) Enhance(ctx context.Context, s Slide, settings EnhanceSettings) (string, error) {
	view, err := enhance.NewView(s.HTML)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	if err := d.enhancer.Run(ctx, view, settings); err != nil {
		return "", err
	}
	return view.HTML(), nil
}

// NotesHTML renders the speaker notes of s for the presenter view.
func (d *Deck) NotesHTML(ctx context.Context, s Slide) (string, error) {
	out, err := d.notes.ToHTML(ctx, s.Notes)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: notes of slide %d: %v", ErrHTMLConversion, s.ID+1, err)
	}
	return out, nil
}

// ThemeCSS returns the full stylesheet of a theme: shared layout, theme
// colors and the matching code highlighting classes.
func (d *Deck) ThemeCSS(themeID string) (string, error) {
	if !IsValidTheme(themeID) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, themeID)
	}
	css, err := assets.ThemeStylesheet(d.assets, themeID)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return "", fmt.Errorf("%w: %v", ErrStyleNotFound, err)
		}
		return "", err
	}
	code, err := d.chroma.CSS(themeID)
	if err != nil {
		return "", err
	}
	return css + "\n" + code, nil
}

// KaTeXBase returns the directory URL of the KaTeX distribution viewers
// load for client-side typesetting, or "" when math is disabled.
func (d *Deck) KaTeXBase() string {
	if d.cfg.math == MathNone {
		return ""
	}
	u := d.cfg.katexURL
	if u == "" {
		u = browser.DefaultKaTeXURL
	}
	if i := strings.LastIndex(u, "/"); i > 0 {
		return u[:i]
	}
	return u
}

// CheckBrowser launches headless Chrome and verifies the engine scripts
// load. Returns ErrBrowserDisabled when the deck runs without a browser.
func (d *Deck) CheckBrowser(ctx context.Context) error {
	if d.browser == nil {
		return ErrBrowserDisabled
	}
	if err := d.browser.Check(ctx); err != nil {
		if errors.Is(err, browser.ErrBrowserConnect) {
			return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}
		return err
	}
	return nil
}

// BuildOptions configures a static build.
type BuildOptions struct {
	// Title defaults to the title of the first slide.
	Title string
	// ThemeID defaults to DefaultThemeID.
	ThemeID     string
	LineNumbers bool
}

type builtSlide struct {
	Anchor string
	Index  int
	Title  string
	HTML   template.HTML
	Notes  template.HTML
}

type buildData struct {
	Title     string
	ThemeID   string
	CSS       template.CSS
	KaTeXBase string
	Slides    []builtSlide
}

// Build writes doc as a single self-contained HTML page with every slide
// fully enhanced and the theme stylesheet inlined.
func (d *Deck) Build(ctx context.Context, w io.Writer, doc string, opts BuildOptions) error {
	if strings.TrimSpace(doc) == "" {
		return ErrEmptyDocument
	}
	themeID := opts.ThemeID
	if themeID == "" {
		themeID = DefaultThemeID
	}
	if !IsValidTheme(themeID) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, themeID)
	}

	slides, err := d.Compile(ctx, doc)
	if err != nil {
		return err
	}
	css, err := d.ThemeCSS(themeID)
	if err != nil {
		return err
	}
	tmpl, err := assets.ParsePage(d.assets, assets.DeckTemplate)
	if err != nil {
		if errors.Is(err, assets.ErrTemplateNotFound) {
			return fmt.Errorf("%w: %v", ErrTemplateNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrBuildTemplate, err)
	}

	built := make([]builtSlide, len(slides))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.poolSize)
	for i, s := range slides {
		g.Go(func() error {
			body, err := d.Enhance(gctx, s, EnhanceSettings{SlideID: s.ID, ThemeID: themeID, LineNumbers: opts.LineNumbers})
			if err != nil {
				return err
			}
			notes, err := d.NotesHTML(gctx, s)
			if err != nil {
				return err
			}
			built[i] = builtSlide{
				Anchor: SlideSlug(s),
				Index:  i,
				Title:  s.Title,
				HTML:   template.HTML(body),  // #nosec G203 -- rendered without raw HTML passthrough
				Notes:  template.HTML(notes), // #nosec G203 -- rendered without raw HTML passthrough
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	title := opts.Title
	if title == "" {
		title = slides[0].Title
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, buildData{
		Title:     title,
		ThemeID:   themeID,
		CSS:       template.CSS(css), // #nosec G203 -- built-in or user-provided stylesheet
		KaTeXBase: d.KaTeXBase(),
		Slides:    built,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildTemplate, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Close releases the browser engine, if one was started.
func (d *Deck) Close() error {
	var err error
	if d.browser != nil {
		err = multierr.Append(err, d.browser.Close())
	}
	return err
}
