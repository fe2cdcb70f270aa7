package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "ENRICHER_SERVER_HOST"
	EnvServerPort              = "ENRICHER_SERVER_PORT"
	EnvServerReadTimeout       = "ENRICHER_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "ENRICHER_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "ENRICHER_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "ENRICHER_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "ENRICHER_SERVER_SHUTDOWN_TIMEOUT"
	EnvServerReadyTimeout      = "ENRICHER_SERVER_READY_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. ReadTimeout covers a whole
// request including the multipart payload; ReadHeaderTimeout covers only
// the headers. ReadyTimeout bounds the dependency probes behind /readyz.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
	ReadyTimeout      string `toml:"ready_timeout"`
}

type serverDuration struct {
	name  string
	env   string
	def   string
	value *string
}

func (c *ServerConfig) durations() []serverDuration {
	return []serverDuration{
		{"read_timeout", EnvServerReadTimeout, "5m", &c.ReadTimeout},
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout},
		{"write_timeout", EnvServerWriteTimeout, "2m", &c.WriteTimeout},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", &c.ShutdownTimeout},
		{"ready_timeout", EnvServerReadyTimeout, "3s", &c.ReadyTimeout},
	}
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration       { return duration(c.ReadTimeout) }
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration { return duration(c.ReadHeaderTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration      { return duration(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration       { return duration(c.IdleTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration   { return duration(c.ShutdownTimeout) }
func (c *ServerConfig) ReadyTimeoutDuration() time.Duration      { return duration(c.ReadyTimeout) }

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}

	over := overlay.durations()
	for i, d := range c.durations() {
		if v := *over[i].value; v != "" {
			*d.value = v
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, d := range c.durations() {
		if *d.value == "" {
			*d.value = d.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	for _, d := range c.durations() {
		if v := os.Getenv(d.env); v != "" {
			*d.value = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range c.durations() {
		v, err := time.ParseDuration(*d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	if duration(c.ReadHeaderTimeout) > duration(c.ReadTimeout) {
		return fmt.Errorf("read_header_timeout must not exceed read_timeout")
	}
	return nil
}
