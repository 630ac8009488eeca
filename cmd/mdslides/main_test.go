package main

// Notes:
// - runMain: we test dispatch and exit codes through observable output.
//   Commands that need Chrome run with --no-browser.
// - testEnv isolates tests from the real process environment: Getenv only
//   sees the variables a test passes in.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for a server goroutine and a test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testEnv(vars map[string]string) (*Environment, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(key string) string { return vars[key] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
	return env, stdout, stderr
}

func writeDeck(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

const sampleDeck = "# Welcome\n\nHello.\n\nNote: smile\n\n---\n\n# Code\n\n```go\nfmt.Println(\"hi\")\n```\n\n---\n\n# Café & Crème\n"

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"mdslides"}, ExitUsage, "", "Usage: mdslides"},
		{"unknown command", []string{"mdslides", "present"}, ExitUsage, "", "Unknown command: present"},
		{"version", []string{"mdslides", "version"}, ExitSuccess, "mdslides dev", ""},
		{"help", []string{"mdslides", "help"}, ExitSuccess, "Commands:", ""},
		{"help serve", []string{"mdslides", "help", "serve"}, ExitSuccess, "--store-path", ""},
		{"build help flag", []string{"mdslides", "build", "--help"}, ExitSuccess, "", "Usage: mdslides build"},
		{"build no input", []string{"mdslides", "build"}, ExitIO, "", "no input specified"},
		{"build bad flag", []string{"mdslides", "build", "--shiny", "x.md"}, ExitUsage, "", "unknown flag"},
		{"build wrong extension", []string{"mdslides", "build", "deck.txt"}, ExitUsage, "", ".md or .markdown"},
		{"build missing file", []string{"mdslides", "build", "--no-browser", "missing.md"}, ExitIO, "", "failed to read markdown"},
		{"link bad theme", []string{"mdslides", "link", "--theme", "neon"}, ExitUsage, "", "hint: available: hacker, midnight, paper, solarized"},
		{"themes", []string{"mdslides", "themes"}, ExitSuccess, "midnight", ""},
		{"themes bad arg", []string{"mdslides", "themes", "--yaml"}, ExitUsage, "", "unknown argument"},
		{"config missing file", []string{"mdslides", "config", "-c", "./nope.yaml"}, ExitUsage, "", "config file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			code := runMain(context.Background(), tt.args, env)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunMain_WarnsUnknownEnvVars(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv(map[string]string{"MDSLIDES_THEMES": "paper"})
	runMain(context.Background(), []string{"mdslides", "version"}, env)
	if !strings.Contains(stderr.String(), "unknown environment variable MDSLIDES_THEMES") {
		t.Errorf("stderr = %q, want typo warning", stderr.String())
	}
}

func TestIsVerbose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"serve", "-v"}, true},
		{[]string{"build", "--verbose", "x.md"}, true},
		{[]string{"build", "x.md"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isVerbose(tt.args); got != tt.want {
			t.Errorf("isVerbose(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
