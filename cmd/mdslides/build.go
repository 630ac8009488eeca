package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
)

// File permission constants.
const (
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// runBuild writes a deck as one self-contained HTML page.
func runBuild(ctx context.Context, args []string, env *Environment) (err error) {
	flags, positional, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := singleInput(positional)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common, env)
	if err != nil {
		return err
	}
	mergeEngineFlags(flags.engines, cfg)
	mergeViewFlags(flags.view, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	markdown, err := readMarkdown(input)
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
	}

	// Logs never share a stream with the page.
	logOut := env.Stdout
	if output == "-" {
		logOut = env.Stderr
	}
	logger, closeLog, err := newLogger(cfg, logOut, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	deck, err := newDeck(cfg, logger.Named("deck"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, deck.Close()) }()

	start := env.now()
	var buf bytes.Buffer
	err = deck.Build(ctx, &buf, markdown, mdslides.BuildOptions{
		Title:       flags.view.title,
		ThemeID:     cfg.Deck.Theme,
		LineNumbers: cfg.Deck.LineNumbers,
	})
	if err != nil {
		return fmt.Errorf("building %s: %w", input, err)
	}

	if err := writeOutput(output, buf.Bytes(), env.Stdout); err != nil {
		return err
	}
	logger.Info("built deck",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("slides", len(mdslides.Compile(markdown))),
		zap.Duration("took", env.now().Sub(start)))
	return nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil { // #nosec G306 -- HTML output is meant to be shared
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	return nil
}
