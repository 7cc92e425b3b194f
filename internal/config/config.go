// ABOUTME: Configuration loading and parsing for telegate.
// ABOUTME: YAML files with environment variable expansion, plus an env-only fallback.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config names no value.
const (
	DefaultHTTPAddr       = ":8080"
	DefaultFetchLimit     = 50
	DefaultMaxFetchLimit  = 1000
	DefaultConnectRetries = 5
)

// Config represents the complete telegate configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig holds the session credentials. All three credential
// fields are required; the process refuses to start without them.
type TelegramConfig struct {
	AppID        int    `yaml:"app_id"`
	AppHash      string `yaml:"app_hash"`
	SessionToken string `yaml:"session_token"`

	// ConnectRetries bounds per-request retries inside the client engine.
	ConnectRetries int `yaml:"connect_retries"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds the entity-cache database path. Empty disables
// the cache entirely.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds API authentication configuration. An empty secret
// leaves the API unauthenticated.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// FetchConfig bounds message-window sizes.
type FetchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a
// parsed Config. Environment variables in the format ${VAR_NAME} are
// expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// FromEnv builds a Config purely from environment variables, matching
// the original deployment shape: TELEGRAM_API_ID, TELEGRAM_API_HASH and
// TELEGRAM_SESSION are required, PORT is optional.
func FromEnv() (*Config, error) {
	var cfg Config

	if raw := os.Getenv("TELEGRAM_API_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing TELEGRAM_API_ID %q: %w", raw, err)
		}
		cfg.Telegram.AppID = id
	}
	cfg.Telegram.AppHash = os.Getenv("TELEGRAM_API_HASH")
	cfg.Telegram.SessionToken = os.Getenv("TELEGRAM_SESSION")

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddr = ":" + port
	}
	cfg.Database.Path = os.Getenv("TELEGATE_DB_PATH")
	cfg.Auth.JWTSecret = os.Getenv("TELEGATE_JWT_SECRET")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	cfg.Logging.Format = os.Getenv("LOG_FORMAT")

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Fetch.DefaultLimit <= 0 {
		c.Fetch.DefaultLimit = DefaultFetchLimit
	}
	if c.Fetch.MaxLimit <= 0 {
		c.Fetch.MaxLimit = DefaultMaxFetchLimit
	}
	if c.Telegram.ConnectRetries <= 0 {
		c.Telegram.ConnectRetries = DefaultConnectRetries
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present.
// Missing credentials are fatal: there is no interactive login path.
func (c *Config) Validate() error {
	if c.Telegram.AppID == 0 {
		return fmt.Errorf("telegram.app_id is required (TELEGRAM_API_ID)")
	}
	if c.Telegram.AppHash == "" {
		return fmt.Errorf("telegram.app_hash is required (TELEGRAM_API_HASH)")
	}
	if c.Telegram.SessionToken == "" {
		return fmt.Errorf("telegram.session_token is required (TELEGRAM_SESSION)")
	}
	return nil
}
