// Package config loads mdslides configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/fileutil"
	"github.com/alnah/go-mdslides/internal/store"
	"github.com/alnah/go-mdslides/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength = 255
	MaxPathLength = 4096
	MaxURLLength  = 2048 // Browser limit
	MaxKeyLength  = 200
)

// Math engine names.
const (
	MathMarkup = "markup" // TeX delimiters typeset on the client
	MathKaTeX  = "katex"  // KaTeX in headless Chrome
	MathNone   = "none"   // Math left as source text
)

// Config holds all configuration for serving and building decks.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Sync    SyncConfig    `yaml:"sync"`
	Deck    DeckConfig    `yaml:"deck"`
	Engines EnginesConfig `yaml:"engines"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`            // "127.0.0.1:8080"
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"` // Grace period on SIGINT/SIGTERM
}

// StoreConfig defines the durable state store.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "sqlite", "badger", "memory"
	Path    string `yaml:"path"`    // SQLite file or Badger directory
}

// SyncConfig defines state replication between contexts.
type SyncConfig struct {
	Key          string        `yaml:"key"`          // Store key of the shared state
	EditDebounce time.Duration `yaml:"editDebounce"` // Delay before recompiling edits
}

// DeckConfig defines view defaults.
type DeckConfig struct {
	Theme        string        `yaml:"theme"`
	LineNumbers  bool          `yaml:"lineNumbers"`
	DiagramDelay time.Duration `yaml:"diagramDelay"`
}

// EnginesConfig defines rendering engines.
type EnginesConfig struct {
	Browser    bool          `yaml:"browser"` // Render diagrams in headless Chrome
	Math       string        `yaml:"math"`    // "markup", "katex" or "none"
	PoolSize   int           `yaml:"poolSize"`
	Timeout    time.Duration `yaml:"timeout"`
	MermaidURL string        `yaml:"mermaidURL"`
	KaTeXURL   string        `yaml:"katexURL"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{Backend: store.BackendMemory},
		Sync: SyncConfig{
			Key:          "mdslides.state",
			EditDebounce: 250 * time.Millisecond,
		},
		Deck: DeckConfig{
			Theme:        mdslides.DefaultThemeID,
			DiagramDelay: 140 * time.Millisecond,
		},
		Engines: EnginesConfig{
			Browser:  true,
			Math:     MathMarkup,
			PoolSize: 2,
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{Level: LevelNormal},
	}
}

// Validate checks values and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"store.path", c.Store.Path, MaxPathLength},
		{"sync.key", c.Sync.Key, MaxKeyLength},
		{"engines.mermaidURL", c.Engines.MermaidURL, MaxURLLength},
		{"engines.katexURL", c.Engines.KaTeXURL, MaxURLLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"logging.file", c.Logging.File, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	switch c.Store.Backend {
	case "", store.BackendMemory:
	case store.BackendSQLite, store.BackendBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path: required for backend %q", ErrInvalidValue, c.Store.Backend)
		}
	default:
		return fmt.Errorf("%w: store.backend: %q (must be sqlite, badger, or memory)", ErrInvalidValue, c.Store.Backend)
	}

	if c.Deck.Theme != "" && !mdslides.IsValidTheme(c.Deck.Theme) {
		return fmt.Errorf("%w: deck.theme: %w %q", ErrInvalidValue, mdslides.ErrUnknownTheme, c.Deck.Theme)
	}

	switch c.Engines.Math {
	case "", MathMarkup, MathKaTeX, MathNone:
	default:
		return fmt.Errorf("%w: engines.math: %q (must be markup, katex, or none)", ErrInvalidValue, c.Engines.Math)
	}
	if c.Engines.Math == MathKaTeX && !c.Engines.Browser {
		return fmt.Errorf("%w: engines.math: katex requires engines.browser", ErrInvalidValue)
	}
	if c.Engines.PoolSize < 0 {
		return fmt.Errorf("%w: engines.poolSize: must not be negative, got %d", ErrInvalidValue, c.Engines.PoolSize)
	}
	for _, u := range []string{c.Engines.MermaidURL, c.Engines.KaTeXURL} {
		if u != "" && !fileutil.IsScriptURL(u) {
			return fmt.Errorf("%w: script URL %q must be http(s)", ErrInvalidValue, u)
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"sync.editDebounce", c.Sync.EditDebounce},
		{"deck.diagramDelay", c.Deck.DiagramDelay},
		{"engines.timeout", c.Engines.Timeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%w: %s: must not be negative, got %s", ErrInvalidValue, d.name, d.value)
		}
	}

	return c.Logging.Validate()
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath has a path separator or a .yaml/.yml extension, it is read directly.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsConfigPath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdslides/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdslides", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
