// Package config assembles service configuration from config.toml, an
// optional config.<ENRICHER_ENV>.toml overlay, and ENRICHER_ environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/enricher/internal/auth"
	"github.com/JaimeStill/enricher/internal/content"
	"github.com/JaimeStill/enricher/internal/enrichment"
	"github.com/JaimeStill/enricher/pkg/database"
	"github.com/JaimeStill/enricher/pkg/middleware"
	"github.com/JaimeStill/enricher/pkg/queue"
	"github.com/JaimeStill/enricher/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvEnricherEnv             = "ENRICHER_ENV"
	EnvEnricherShutdownTimeout = "ENRICHER_SHUTDOWN_TIMEOUT"
	EnvEnricherVersion         = "ENRICHER_VERSION"
	EnvEnricherLogFormat       = "ENRICHER_LOG_FORMAT"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var databaseEnv = &database.Env{
	Host:            "ENRICHER_DB_HOST",
	Port:            "ENRICHER_DB_PORT",
	Name:            "ENRICHER_DB_NAME",
	User:            "ENRICHER_DB_USER",
	Password:        "ENRICHER_DB_PASSWORD",
	SSLMode:         "ENRICHER_DB_SSL_MODE",
	MaxConns:        "ENRICHER_DB_MAX_CONNS",
	MinConns:        "ENRICHER_DB_MIN_CONNS",
	ConnMaxLifetime: "ENRICHER_DB_CONN_MAX_LIFETIME",
	ConnMaxIdleTime: "ENRICHER_DB_CONN_MAX_IDLE_TIME",
	ConnTimeout:     "ENRICHER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ENRICHER_STORAGE_CONTAINER_NAME",
	ConnectionString: "ENRICHER_STORAGE_CONNECTION_STRING",
}

var queueEnv = &queue.Env{
	Addr:     "ENRICHER_QUEUE_ADDR",
	Password: "ENRICHER_QUEUE_PASSWORD",
	DB:       "ENRICHER_QUEUE_DB",
	Key:      "ENRICHER_QUEUE_KEY",
}

var enrichmentEnv = &enrichment.Env{
	BaseURL:        "ENRICHER_ENRICHMENT_BASE_URL",
	MaxAttempts:    "ENRICHER_ENRICHMENT_MAX_ATTEMPTS",
	PollInterval:   "ENRICHER_ENRICHMENT_POLL_INTERVAL",
	RequestTimeout: "ENRICHER_ENRICHMENT_REQUEST_TIMEOUT",
	MaxConcurrent:  "ENRICHER_ENRICHMENT_MAX_CONCURRENT",
	Extensions:     "ENRICHER_ENRICHMENT_EXTENSIONS",
}

var contentEnv = &content.Env{
	BaseURL:  "ENRICHER_CONTENT_BASE_URL",
	Username: "ENRICHER_CONTENT_USERNAME",
	Password: "ENRICHER_CONTENT_PASSWORD",
	Timeout:  "ENRICHER_CONTENT_TIMEOUT",
}

var authEnv = &auth.Env{
	TokenURL:     "ENRICHER_AUTH_TOKEN_URL",
	ClientID:     "ENRICHER_AUTH_CLIENT_ID",
	ClientSecret: "ENRICHER_AUTH_CLIENT_SECRET",
	Scope:        "ENRICHER_AUTH_SCOPE",
}

var oidcEnv = &middleware.BearerEnv{
	Enabled:  "ENRICHER_OIDC_ENABLED",
	Issuer:   "ENRICHER_OIDC_ISSUER",
	Audience: "ENRICHER_OIDC_AUDIENCE",
}

// Config is the root configuration for the enricher service.
type Config struct {
	Server          ServerConfig            `toml:"server"`
	Database        database.Config         `toml:"database"`
	Storage         storage.Config          `toml:"storage"`
	Queue           queue.Config            `toml:"queue"`
	API             APIConfig               `toml:"api"`
	Enrichment      enrichment.Config       `toml:"enrichment"`
	Content         content.Config          `toml:"content"`
	Auth            auth.Config             `toml:"auth"`
	OIDC            middleware.BearerConfig `toml:"oidc"`
	ShutdownTimeout string                  `toml:"shutdown_timeout"`
	Version         string                  `toml:"version"`
	LogFormat       string                  `toml:"log_format"`
}

// Env returns the ENRICHER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvEnricherEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Without config.toml, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(BaseConfigFile)
}

// LoadFrom is Load with an explicit base file path. The overlay is looked up
// next to it.
func LoadFrom(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Read loads the base file at path (if present) and merges the
// ENRICHER_ENV overlay without applying defaults or validation.
func Read(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		ov, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(ov)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Queue.Merge(&overlay.Queue)
	c.API.Merge(&overlay.API)
	c.Enrichment.Merge(&overlay.Enrichment)
	c.Content.Merge(&overlay.Content)
	c.Auth.Merge(&overlay.Auth)
	c.OIDC.Merge(&overlay.OIDC)
}

// FinalizeClient finalizes only the sections a one-shot client needs:
// enrichment, content, and auth. Database, storage, and queue settings are
// not required to be present.
func (c *Config) FinalizeClient() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	return c.finalizeRemote()
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Queue.Finalize(queueEnv); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.OIDC.Finalize(oidcEnv); err != nil {
		return fmt.Errorf("oidc: %w", err)
	}
	return c.finalizeRemote()
}

func (c *Config) finalizeRemote() error {
	if err := c.Enrichment.Finalize(enrichmentEnv); err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}
	if err := c.Content.Finalize(contentEnv); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvEnricherShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvEnricherVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvEnricherLogFormat); v != "" {
		c.LogFormat = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log_format: %q", c.LogFormat)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvEnricherEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
