package queue

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds Redis connection and queue parameters.
type Config struct {
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	Key          string `toml:"key"`
	ClaimTimeout string `toml:"claim_timeout"`
	ReapBatch    int64  `toml:"reap_batch"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Addr     string
	Password string
	DB       string
	Key      string
}

func (c *Config) ClaimTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClaimTimeout)
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
	if overlay.Addr != "" {
		c.Addr = overlay.Addr
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.DB != 0 {
		c.DB = overlay.DB
	}
	if overlay.Key != "" {
		c.Key = overlay.Key
	}
	if overlay.ClaimTimeout != "" {
		c.ClaimTimeout = overlay.ClaimTimeout
	}
	if overlay.ReapBatch != 0 {
		c.ReapBatch = overlay.ReapBatch
	}
}

func (c *Config) loadDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.Key == "" {
		c.Key = "enricher:runs"
	}
	if c.ClaimTimeout == "" {
		c.ClaimTimeout = "5s"
	}
	if c.ReapBatch == 0 {
		c.ReapBatch = 100
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Addr != "" {
		if v := os.Getenv(env.Addr); v != "" {
			c.Addr = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.DB != "" {
		if v := os.Getenv(env.DB); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.DB = n
			}
		}
	}
	if env.Key != "" {
		if v := os.Getenv(env.Key); v != "" {
			c.Key = v
		}
	}
}

func (c *Config) validate() error {
	if c.DB < 0 {
		return fmt.Errorf("db must not be negative")
	}
	if c.ReapBatch < 1 {
		return fmt.Errorf("reap_batch must be positive")
	}
	d, err := time.ParseDuration(c.ClaimTimeout)
	if err != nil {
		return fmt.Errorf("invalid claim_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("claim_timeout must be positive")
	}
	return nil
}
