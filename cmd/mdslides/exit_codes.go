package main

import (
	"errors"
	"os"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/browser"
	"github.com/alnah/go-mdslides/internal/config"
	"github.com/alnah/go-mdslides/internal/store"
)

// Exit codes for the mdslides CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, port in use
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdslides.ErrBrowserConnect) ||
		errors.Is(err, browser.ErrBrowserConnect) ||
		errors.Is(err, browser.ErrPageCreate) ||
		errors.Is(err, browser.ErrPageLoad) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrListen) ||
		errors.Is(err, store.ErrOpen) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidSlide) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, store.ErrUnknownBackend) ||
		errors.Is(err, mdslides.ErrEmptyDocument) ||
		errors.Is(err, mdslides.ErrUnknownTheme) ||
		errors.Is(err, mdslides.ErrInvalidOption) ||
		errors.Is(err, mdslides.ErrAssetPath) ||
		errors.Is(err, mdslides.ErrStyleNotFound) ||
		errors.Is(err, mdslides.ErrTemplateNotFound) ||
		errors.Is(err, mdslides.ErrBrowserDisabled) {
		return ExitUsage
	}

	return ExitGeneral
}
