package auth

import (
	"fmt"
	"os"
)

const (
	DefaultTokenURL = "https://auth.iam.experience.hyland.com/idp/connect/token"
	DefaultScope    = "environment_authorization"
)

// Config holds client-credentials grant parameters.
type Config struct {
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Scope        string `toml:"scope"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// Configured reports whether client credentials are present.
func (c *Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
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
	if overlay.TokenURL != "" {
		c.TokenURL = overlay.TokenURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.ClientSecret != "" {
		c.ClientSecret = overlay.ClientSecret
	}
	if overlay.Scope != "" {
		c.Scope = overlay.Scope
	}
}

func (c *Config) loadDefaults() {
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.TokenURL != "" {
		if v := os.Getenv(env.TokenURL); v != "" {
			c.TokenURL = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.ClientSecret != "" {
		if v := os.Getenv(env.ClientSecret); v != "" {
			c.ClientSecret = v
		}
	}
	if env.Scope != "" {
		if v := os.Getenv(env.Scope); v != "" {
			c.Scope = v
		}
	}
}

func (c *Config) validate() error {
	if (c.ClientID == "") != (c.ClientSecret == "") {
		return fmt.Errorf("client_id and client_secret must be set together")
	}
	return nil
}
