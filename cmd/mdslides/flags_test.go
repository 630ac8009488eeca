package main

// Notes:
// - parse*Flags: we test short and long forms, defaults, and that parse
//   errors are tagged ErrUsage while --help stays flag.ErrHelp.
// - merge*Flags: zero-valued flags must never clobber config values.

import (
	"bytes"
	"errors"
	"testing"
	"time"

	flag "github.com/spf13/pflag"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/config"
)

// ---------------------------------------------------------------------------
// TestParseServeFlags - Serve command flags
// ---------------------------------------------------------------------------

func TestParseServeFlags(t *testing.T) {
	t.Parallel()

	args := []string{"-a", ":9000", "--store", "sqlite", "--store-path", "s.db", "-v",
		"--math", "none", "-t", "1m", "-w", "3", "--theme", "paper", "--line-numbers", "talk.md"}
	f, positional, err := parseServeFlags(args, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if len(positional) != 1 || positional[0] != "talk.md" {
		t.Errorf("positional = %v, want [talk.md]", positional)
	}
	if f.addr != ":9000" || f.store != "sqlite" || f.storePath != "s.db" {
		t.Errorf("serve flags = %+v", f)
	}
	if !f.common.verbose || f.engines.math != "none" || f.engines.timeout != time.Minute || f.engines.poolSize != 3 {
		t.Errorf("common/engine flags = %+v %+v", f.common, f.engines)
	}
	if f.view.theme != "paper" || !f.view.lineNumbers {
		t.Errorf("view flags = %+v", f.view)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	_, _, err := parseBuildFlags([]string{"--help"}, &stderr)
	if !errors.Is(err, flag.ErrHelp) || errors.Is(err, ErrUsage) {
		t.Errorf("--help error = %v, want bare flag.ErrHelp", err)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("Usage: mdslides build")) {
		t.Errorf("--help did not print usage: %q", stderr.String())
	}

	_, _, err = parseBuildFlags([]string{"-t", "soon"}, &bytes.Buffer{})
	if !errors.Is(err, ErrUsage) {
		t.Errorf("bad duration error = %v, want ErrUsage", err)
	}
}

func TestParseLinkFlags_Defaults(t *testing.T) {
	t.Parallel()

	f, err := parseLinkFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseLinkFlags() error = %v", err)
	}
	if f.slide != 1 || f.theme != mdslides.DefaultThemeID || f.presenter || f.base != "" {
		t.Errorf("defaults = %+v", f)
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI over config
// ---------------------------------------------------------------------------

func TestMergeServeFlags(t *testing.T) {
	t.Parallel()

	t.Run("zero flags keep config", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		mergeServeFlags(&serveFlags{}, cfg)
		if *cfg != *config.DefaultConfig() {
			t.Errorf("merge of empty flags changed config: %+v", cfg)
		}
	})

	t.Run("set flags win", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		mergeServeFlags(&serveFlags{
			engines:   engineFlags{noBrowser: true, math: "none", timeout: time.Second, poolSize: 8, assetPath: "/assets"},
			view:      viewFlags{theme: "hacker", lineNumbers: true},
			addr:      ":1",
			store:     "badger",
			storePath: "/data",
		}, cfg)

		if cfg.Engines.Browser || cfg.Engines.Math != "none" || cfg.Engines.Timeout != time.Second || cfg.Engines.PoolSize != 8 {
			t.Errorf("engines = %+v", cfg.Engines)
		}
		if cfg.Assets.BasePath != "/assets" || cfg.Deck.Theme != "hacker" || !cfg.Deck.LineNumbers {
			t.Errorf("assets/deck = %+v %+v", cfg.Assets, cfg.Deck)
		}
		if cfg.Server.Addr != ":1" || cfg.Store.Backend != "badger" || cfg.Store.Path != "/data" {
			t.Errorf("server/store = %+v %+v", cfg.Server, cfg.Store)
		}
	})
}

// ---------------------------------------------------------------------------
// TestInputHelpers - Input validation
// ---------------------------------------------------------------------------

func TestValidateMarkdownExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"talk.md", false},
		{"talk.MD", false},
		{"dir/talk.markdown", false},
		{"talk.txt", true},
		{"talk", true},
		{"talk.md.bak", true},
	}
	for _, tt := range tests {
		err := validateMarkdownExtension(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateMarkdownExtension(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error %v does not wrap ErrInvalidExtension", err)
		}
	}
}

func TestSingleInput(t *testing.T) {
	t.Parallel()

	if _, err := singleInput(nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("no args error = %v, want ErrNoInput", err)
	}
	if got, err := singleInput([]string{"a.md"}); err != nil || got != "a.md" {
		t.Errorf("singleInput([a.md]) = %q, %v", got, err)
	}
	if _, err := singleInput([]string{"a.md", "b.md"}); !errors.Is(err, ErrUsage) {
		t.Errorf("two args error = %v, want ErrUsage", err)
	}
}
