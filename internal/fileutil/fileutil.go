// Package fileutil resolves config references and stages the browser host
// page on disk.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyHostPage is returned when the host page has no content.
var ErrEmptyHostPage = errors.New("host page is empty")

// configExtensions are the suffixes that mark a bare file name as a path.
var configExtensions = []string{".yaml", ".yml"}

// WriteHostPage writes the browser host page to a temp file.
// The returned cleanup removes it and is safe to call twice.
func WriteHostPage(html string) (path string, cleanup func(), err error) {
	if strings.TrimSpace(html) == "" {
		return "", nil, ErrEmptyHostPage
	}

	f, err := os.CreateTemp("", "mdslides-host-*.html")
	if err != nil {
		return "", nil, fmt.Errorf("creating host page: %w", err)
	}

	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, err := f.WriteString(html); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing host page: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing host page: %w", err)
	}

	return path, cleanup, nil
}

// FileURL returns the file:// URL a browser tab opens for path.
func FileURL(path string) string {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return "file://" + slashed
}

// FileExists reports whether path is an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsConfigPath reports whether a --config value names a file directly
// rather than a config to search for:
//   - "talk" -> false (searched as talk.yaml, talk.yml)
//   - "talk.yaml" -> true
//   - "./decks/talk" -> true
//   - `C:\decks\talk.yml` -> true
func IsConfigPath(ref string) bool {
	if strings.ContainsAny(ref, "/\\") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(ref))
	for _, e := range configExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsScriptURL reports whether s can be loaded as a script source by the
// host page.
func IsScriptURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
