package mdslides

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyDocument  = errors.New("document cannot be empty")
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrSlideRange     = errors.New("slide index out of range")
	ErrInvalidOption  = errors.New("invalid deck option")
	ErrAssetPath      = errors.New("invalid assets path")

	// ErrBrowserDisabled is returned by browser checks on a deck created
	// with WithBrowser(false).
	ErrBrowserDisabled = errors.New("browser engine disabled")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrBuildTemplate    = errors.New("deck template rendering failed")
)
