// Package config loads the dashsync YAML configuration with environment
// variable expansion and .env support, applies defaults, and validates the
// result.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

// Config is the top-level dashsync configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Store   StoreConfig   `yaml:"store"`
	Journal JournalConfig `yaml:"journal"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	Metrics MetricsConfig `yaml:"metrics"`
	Refresh RefreshConfig `yaml:"refresh"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig describes the websocket channel to the dashboard backend.
type BackendConfig struct {
	URL          string        `yaml:"url"`
	Origin       string        `yaml:"origin,omitempty"`
	DialTimeout  time.Duration `yaml:"dial_timeout,omitempty"`
	PingInterval time.Duration `yaml:"ping_interval,omitempty"`
}

// StoreConfig tunes the state store.
type StoreConfig struct {
	// ErrorTTL is how long transient error fields persist before
	// self-clearing.
	ErrorTTL time.Duration `yaml:"error_ttl,omitempty"`
}

// JournalConfig enables the local SQLite message journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MirrorConfig enables republishing of session events to NATS.
type MirrorConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// RefreshConfig tunes the periodic backend refresh actions.
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Projects time.Duration `yaml:"projects,omitempty"`
	Packages time.Duration `yaml:"packages,omitempty"`
}

// LoggingConfig tunes the slog setup.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text, json
}

// Load reads the config file, expands environment variables, applies
// defaults, and validates. A .env or .env.local alongside the process is
// loaded first without overriding existing environment.
func Load(configPath string) (*Config, error) {
	loadDotenv()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.ConfigError(fmt.Sprintf("read config file %s", configPath)).WithCause(err).Build()
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("unmarshal config").WithCause(err).Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, pointed at a
// local backend.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func loadDotenv() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("could not load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("loaded environment file", "path", path)
		return
	}
}

func (c *Config) applyDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = "ws://127.0.0.1:8721/ws"
	}
	if c.Backend.Origin == "" {
		c.Backend.Origin = "http://localhost"
	}
	if c.Backend.DialTimeout <= 0 {
		c.Backend.DialTimeout = 5 * time.Second
	}
	if c.Backend.PingInterval <= 0 {
		c.Backend.PingInterval = 30 * time.Second
	}
	if c.Store.ErrorTTL <= 0 {
		c.Store.ErrorTTL = 8 * time.Second
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		c.Journal.Path = "dashsync-journal.db"
	}
	if c.Mirror.Enabled && c.Mirror.URL == "" {
		c.Mirror.URL = "nats://127.0.0.1:4222"
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9821"
	}
	if c.Refresh.Projects <= 0 {
		c.Refresh.Projects = 30 * time.Second
	}
	if c.Refresh.Packages <= 0 {
		c.Refresh.Packages = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return ferrors.ConfigError("invalid backend url").WithCause(err).Build()
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return ferrors.ConfigError("backend url scheme must be ws or wss").
			WithContext("url", c.Backend.URL).
			Build()
	}
	if c.Mirror.Enabled {
		if _, err := url.Parse(c.Mirror.URL); err != nil {
			return ferrors.ConfigError("invalid mirror url").WithCause(err).Build()
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ferrors.ConfigError("invalid log level").
			WithContext("level", c.Logging.Level).
			Build()
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return ferrors.ConfigError("invalid log format").
			WithContext("format", c.Logging.Format).
			Build()
	}
	return nil
}

// SlogLevel maps the configured level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
