package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/browser"
	"github.com/alnah/go-mdslides/internal/config"
	"github.com/alnah/go-mdslides/internal/hints"
)

// loadConfig resolves the configuration: defaults, then the config file,
// then MDSLIDES_* variables. Commands merge their flags afterwards and call
// cfg.Validate.
func loadConfig(common commonFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.getenv)

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	applyEnvConfig(envCfg, cfg)

	switch {
	case common.verbose:
		cfg.Logging.Level = config.LevelDebug
	case common.quiet:
		cfg.Logging.Level = config.LevelNone
	}
	return cfg, nil
}

// newLogger builds the program logger. Info goes to stdout unless stdout
// carries command output. Call the returned closer before exiting.
func newLogger(cfg *config.Config, stdout, stderr io.Writer) (*zap.Logger, func() error, error) {
	logger, closeLog, err := cfg.Logging.Prepare(stdout, stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	return logger, closeLog, nil
}

// newDeck creates a Deck from the engine and asset configuration.
func newDeck(cfg *config.Config, logger *zap.Logger) (*mdslides.Deck, error) {
	opts := []mdslides.Option{
		mdslides.WithBrowser(cfg.Engines.Browser),
		mdslides.WithScriptURLs(cfg.Engines.MermaidURL, cfg.Engines.KaTeXURL),
		mdslides.WithDiagramDelay(cfg.Deck.DiagramDelay),
		mdslides.WithAssetsPath(cfg.Assets.BasePath),
		mdslides.WithLogger(logger),
	}
	if cfg.Engines.Math != "" {
		opts = append(opts, mdslides.WithMath(mdslides.MathEngine(cfg.Engines.Math)))
	}
	if cfg.Engines.Timeout > 0 {
		opts = append(opts, mdslides.WithTimeout(cfg.Engines.Timeout))
	}
	if cfg.Engines.PoolSize > 0 {
		opts = append(opts, mdslides.WithPoolSize(cfg.Engines.PoolSize))
	}
	return mdslides.NewDeck(opts...)
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, mdslides.ErrBrowserConnect), errors.Is(err, browser.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, browser.ErrPageLoad):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err.Error()))
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, mdslides.ErrUnknownTheme):
		return hints.ForUnknownTheme(themeIDs())
	case errors.Is(err, ErrListen):
		return hints.ForListen()
	}
	return ""
}

// triedPaths extracts the searched locations from a config lookup error.
func triedPaths(msg string) []string {
	_, list, ok := strings.Cut(msg, "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

func themeIDs() []string {
	themes := mdslides.Themes()
	ids := make([]string, len(themes))
	for i, t := range themes {
		ids[i] = t.ID
	}
	return ids
}
