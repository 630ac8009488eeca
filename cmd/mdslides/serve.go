package main

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/server"
	"github.com/alnah/go-mdslides/internal/store"
)

// runServe serves the live editor until ctx is canceled. A deck file
// replaces the stored document; without one the stored document resumes.
func runServe(ctx context.Context, args []string, env *Environment) (err error) {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected at most one input file, got %d", ErrUsage, len(positional))
	}

	cfg, err := loadConfig(flags.common, env)
	if err != nil {
		return err
	}
	mergeServeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var markdown string
	if len(positional) == 1 {
		if markdown, err = readMarkdown(positional[0]); err != nil {
			return err
		}
	}

	logger, closeLog, err := newLogger(cfg, env.Stdout, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	deck, err := newDeck(cfg, logger.Named("deck"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, deck.Close()) }()

	st, err := store.Open(store.Config{Backend: cfg.Store.Backend, Path: cfg.Store.Path}, logger.Named("store"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	title := flags.view.title
	if title == "" && markdown != "" {
		title = mdslides.Compile(markdown)[0].Title
	}

	srv := server.New(deck, st,
		server.WithAddr(cfg.Server.Addr),
		server.WithKey(cfg.Sync.Key),
		server.WithTitle(title),
		server.WithEditDebounce(cfg.Sync.EditDebounce),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithTheme(cfg.Deck.Theme),
		server.WithLineNumbers(cfg.Deck.LineNumbers),
		server.WithInitialMarkdown(markdown),
		server.WithLogger(logger.Named("server")),
	)
	defer func() { err = multierr.Append(err, srv.Close()) }()

	if err := srv.Bootstrap(ctx); err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if markdown != "" {
		if err := srv.LoadDocument(ctx, markdown); err != nil {
			return fmt.Errorf("loading %s: %w", positional[0], err)
		}
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListen, err)
	}

	base := "http://" + ln.Addr().String()
	state := srv.State()
	link := mdslides.DeepLink{SlideIndex: state.CurrentSlide, ThemeID: state.ThemeID}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Editor:    %s\n", link.URL(base+"/"))
		link.Presenter = true
		fmt.Fprintf(env.Stdout, "Presenter: %s\n", link.URL(base+"/presenter"))
	}
	logger.Debug("store ready", zap.String("backend", cfg.Store.Backend), zap.String("path", cfg.Store.Path))

	return srv.Serve(ctx, ln)
}
