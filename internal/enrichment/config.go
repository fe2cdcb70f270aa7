package enrichment

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the context-enrichment API root.
const DefaultBaseURL = "https://knowledge-enrichment.ai.experience.hyland.com/latest/api/context-enrichment"

const defaultMaxAttempts = 12

// Config holds remote enrichment service parameters.
type Config struct {
	BaseURL        string   `toml:"base_url"`
	MaxAttempts    *int     `toml:"max_attempts"`
	PollInterval   string   `toml:"poll_interval"`
	RequestTimeout string   `toml:"request_timeout"`
	MaxConcurrent  int      `toml:"max_concurrent"`
	Extensions     []string `toml:"extensions"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL        string
	MaxAttempts    string
	PollInterval   string
	RequestTimeout string
	MaxConcurrent  string
	Extensions     string
}

// Attempts returns the poll attempt limit. An explicit 0 times out without
// polling; an unset value defaults to 12.
func (c *Config) Attempts() int {
	if c.MaxAttempts == nil {
		return defaultMaxAttempts
	}
	return *c.MaxAttempts
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.MaxAttempts != nil {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.Extensions != nil {
		c.Extensions = overlay.Extensions
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxAttempts == nil {
		n := defaultMaxAttempts
		c.MaxAttempts = &n
	}
	if c.PollInterval == "" {
		c.PollInterval = "10s"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "2m"
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.MaxAttempts != "" {
		if v := os.Getenv(env.MaxAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxAttempts = &n
			}
		}
	}
	if env.PollInterval != "" {
		if v := os.Getenv(env.PollInterval); v != "" {
			c.PollInterval = v
		}
	}
	if env.RequestTimeout != "" {
		if v := os.Getenv(env.RequestTimeout); v != "" {
			c.RequestTimeout = v
		}
	}
	if env.MaxConcurrent != "" {
		if v := os.Getenv(env.MaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxConcurrent = n
			}
		}
	}
	if env.Extensions != "" {
		if v := os.Getenv(env.Extensions); v != "" {
			exts := strings.Split(v, ",")
			c.Extensions = make([]string, 0, len(exts))
			for _, ext := range exts {
				if trimmed := strings.TrimSpace(ext); trimmed != "" {
					c.Extensions = append(c.Extensions, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if c.Attempts() < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be positive")
	}
	return nil
}
