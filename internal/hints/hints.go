// Package hints provides actionable error hints for common CLI failures.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdslides/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for headless Chrome launch errors.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "or pass --no-browser to render diagrams as source")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the engine timeout.
func ForTimeout() string {
	return format("for decks with heavy diagrams, use --timeout")
}

// ForConfigNotFound suggests --config, or creating the user config file
// when one of the searched paths lives in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, "go-mdslides") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output file creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForUnknownTheme lists the available theme ids.
func ForUnknownTheme(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForListen returns a hint for address-in-use and permission errors.
func ForListen() string {
	return format("use --addr to pick another host:port")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
