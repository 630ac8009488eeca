package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/config"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage            = errors.New("invalid usage")
	ErrNoInput          = errors.New("no input specified")
	ErrReadMarkdown     = errors.New("failed to read markdown file")
	ErrWriteOutput      = errors.New("failed to write output file")
	ErrInvalidExtension = errors.New("file must have .md or .markdown extension")
	ErrInvalidSlide     = errors.New("slide number must be at least 1")
	ErrListen           = errors.New("failed to listen")
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// engineFlags holds rendering engine flags.
type engineFlags struct {
	noBrowser bool
	math      string
	timeout   time.Duration
	poolSize  int
	assetPath string
}

// viewFlags holds the default view settings.
type viewFlags struct {
	theme       string
	lineNumbers bool
	title       string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	engines   engineFlags
	view      viewFlags
	addr      string
	store     string
	storePath string
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common  commonFlags
	engines engineFlags
	view    viewFlags
	output  string
}

// notesFlags holds flags for the notes command.
type notesFlags struct {
	json bool
}

// linkFlags holds flags for the link command.
type linkFlags struct {
	slide     int
	theme     string
	presenter bool
	base      string
	parse     string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addEngineFlags adds rendering engine flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.BoolVar(&f.noBrowser, "no-browser", false, "render diagrams as source, never start Chrome")
	fs.StringVar(&f.math, "math", "", "math engine: markup, katex, none")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "engine timeout (e.g., 30s, 2m)")
	fs.IntVarP(&f.poolSize, "workers", "w", 0, "concurrent browser pages (0 = config)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addViewFlags adds view default flags to a FlagSet.
func addViewFlags(fs *flag.FlagSet, f *viewFlags) {
	fs.StringVar(&f.theme, "theme", "", "theme id")
	fs.BoolVar(&f.lineNumbers, "line-numbers", false, "number code block lines")
	fs.StringVar(&f.title, "title", "", "page title")
}

func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parse runs fs and tags parse errors as usage errors. --help is returned
// unwrapped so callers can exit 0.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, stderr)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (host:port)")
	fs.StringVar(&f.store, "store", "", "state store: sqlite, badger, memory")
	fs.StringVar(&f.storePath, "store-path", "", "SQLite file or Badger directory")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engines)
	addViewFlags(fs, &f.view)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, stderr io.Writer) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := newFlagSet("build", printBuildUsage, stderr)
	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (- for stdout)")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engines)
	addViewFlags(fs, &f.view)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseNotesFlags parses notes command flags and returns positional args.
func parseNotesFlags(args []string, stderr io.Writer) (*notesFlags, []string, error) {
	f := &notesFlags{}
	fs := newFlagSet("notes", printNotesUsage, stderr)
	fs.BoolVar(&f.json, "json", false, "print notes as JSON")

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseLinkFlags parses link command flags.
func parseLinkFlags(args []string, stderr io.Writer) (*linkFlags, error) {
	f := &linkFlags{}
	fs := newFlagSet("link", printLinkUsage, stderr)
	fs.IntVarP(&f.slide, "slide", "s", 1, "1-based slide number")
	fs.StringVar(&f.theme, "theme", mdslides.DefaultThemeID, "theme id")
	fs.BoolVarP(&f.presenter, "presenter", "p", false, "link to the presenter view")
	fs.StringVar(&f.base, "base", "", "server URL (default from config)")
	fs.StringVar(&f.parse, "parse", "", "decode a fragment or URL instead")

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}

// mergeEngineFlags applies engine flags to cfg (CLI wins).
func mergeEngineFlags(f engineFlags, cfg *config.Config) {
	if f.noBrowser {
		cfg.Engines.Browser = false
	}
	if f.math != "" {
		cfg.Engines.Math = f.math
	}
	if f.timeout > 0 {
		cfg.Engines.Timeout = f.timeout
	}
	if f.poolSize > 0 {
		cfg.Engines.PoolSize = f.poolSize
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
}

// mergeViewFlags applies view flags to cfg (CLI wins).
func mergeViewFlags(f viewFlags, cfg *config.Config) {
	if f.theme != "" {
		cfg.Deck.Theme = f.theme
	}
	if f.lineNumbers {
		cfg.Deck.LineNumbers = true
	}
}

// mergeServeFlags applies serve flags to cfg (CLI wins).
func mergeServeFlags(f *serveFlags, cfg *config.Config) {
	mergeEngineFlags(f.engines, cfg)
	mergeViewFlags(f.view, cfg)
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.store != "" {
		cfg.Store.Backend = f.store
	}
	if f.storePath != "" {
		cfg.Store.Path = f.storePath
	}
}

// validateMarkdownExtension checks that path names a Markdown file.
func validateMarkdownExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}
	return nil
}

// readMarkdown reads the deck at path.
func readMarkdown(path string) (string, error) {
	if err := validateMarkdownExtension(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}
	return string(data), nil
}

// singleInput returns the only positional argument.
func singleInput(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "", ErrNoInput
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: expected one input file, got %d", ErrUsage, len(positional))
	}
}
