package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdslides/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MDSLIDES_CONFIG: config file name or path
	Addr       string        // MDSLIDES_ADDR: listen address
	Theme      string        // MDSLIDES_THEME: default theme id
	Store      string        // MDSLIDES_STORE: sqlite, badger, memory
	StorePath  string        // MDSLIDES_STORE_PATH: SQLite file or Badger directory
	Math       string        // MDSLIDES_MATH: markup, katex, none
	Timeout    time.Duration // MDSLIDES_TIMEOUT: engine timeout
	PoolSize   int           // MDSLIDES_POOL_SIZE: browser pages
	LogLevel   string        // MDSLIDES_LOG_LEVEL: none, normal, debug
}

// knownEnvVars lists valid MDSLIDES_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDSLIDES_CONFIG":     true,
	"MDSLIDES_ADDR":       true,
	"MDSLIDES_THEME":      true,
	"MDSLIDES_STORE":      true,
	"MDSLIDES_STORE_PATH": true,
	"MDSLIDES_MATH":       true,
	"MDSLIDES_TIMEOUT":    true,
	"MDSLIDES_POOL_SIZE":  true,
	"MDSLIDES_LOG_LEVEL":  true,
	"MDSLIDES_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads the recognized MDSLIDES_* variables. Unparsable
// durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MDSLIDES_CONFIG"),
		Addr:       getenv("MDSLIDES_ADDR"),
		Theme:      getenv("MDSLIDES_THEME"),
		Store:      getenv("MDSLIDES_STORE"),
		StorePath:  getenv("MDSLIDES_STORE_PATH"),
		Math:       getenv("MDSLIDES_MATH"),
		LogLevel:   getenv("MDSLIDES_LOG_LEVEL"),
	}

	if timeout := getenv("MDSLIDES_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if size := getenv("MDSLIDES_POOL_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			cfg.PoolSize = n
		}
	}

	return cfg
}

// warnUnknownEnvVars warns about unrecognized MDSLIDES_* variables.
// Helps catch typos like MDSLIDES_THEMES instead of MDSLIDES_THEME.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "MDSLIDES_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides cfg with every variable that is set.
// Precedence: flags > env vars > config file > defaults
// (flags are applied afterwards by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.Theme != "" {
		cfg.Deck.Theme = env.Theme
	}
	if env.Store != "" {
		cfg.Store.Backend = env.Store
	}
	if env.StorePath != "" {
		cfg.Store.Path = env.StorePath
	}
	if env.Math != "" {
		cfg.Engines.Math = env.Math
	}
	if env.Timeout > 0 {
		cfg.Engines.Timeout = env.Timeout
	}
	if env.PoolSize > 0 {
		cfg.Engines.PoolSize = env.PoolSize
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
}
