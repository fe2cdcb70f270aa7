package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/enricher/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080

[database]
host = "localhost"
port = 5432
name = "enricher"
user = "enricher"
password = "enricher"
ssl_mode = "disable"
max_conns = 8

[storage]
container_name = "payloads"
connection_string = "UseDevelopmentStorage=true"

[queue]
addr = "localhost:6379"
key = "enricher:runs"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[enrichment]
max_attempts = 6
poll_interval = "5s"
max_concurrent = 2

[auth]
client_id = "svc"
client_secret = "secret"
`

const overlayConfig = `
log_format = "json"

[server]
port = 9090

[database]
host = "prodhost"

[enrichment]
base_url = "https://enrichment.example.com/api"
`

const minimalConfig = `
[database]
name = "enricher"
user = "enricher"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 8 {
		t.Errorf("db max_conns: got %d, want 8", cfg.Database.MaxConns)
	}
	if cfg.Storage.ContainerName != "payloads" {
		t.Errorf("storage container: got %s, want payloads", cfg.Storage.ContainerName)
	}
	if cfg.Queue.Key != "enricher:runs" {
		t.Errorf("queue key: got %s", cfg.Queue.Key)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	if cfg.Enrichment.Attempts() != 6 || cfg.Enrichment.PollIntervalDuration() != 5*time.Second {
		t.Errorf("enrichment: got %+v", cfg.Enrichment)
	}
	if cfg.Enrichment.MaxConcurrent != 2 {
		t.Errorf("enrichment max_concurrent: got %d, want 2", cfg.Enrichment.MaxConcurrent)
	}
	if !cfg.Auth.Configured() {
		t.Error("auth: expected configured credentials")
	}
	if cfg.LogFormat != config.LogFormatText {
		t.Errorf("log_format: got %s, want text", cfg.LogFormat)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)

	t.Setenv(config.EnvEnricherEnv, "staging")

	cfg, err := config.LoadFrom(base)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Enrichment.BaseURL != "https://enrichment.example.com/api" {
		t.Errorf("enrichment base_url: got %s", cfg.Enrichment.BaseURL)
	}
	if cfg.Enrichment.Attempts() != 6 {
		t.Errorf("enrichment max_attempts: got %d, want 6 (from base)", cfg.Enrichment.Attempts())
	}
	if cfg.LogFormat != config.LogFormatJSON {
		t.Errorf("log_format: got %s, want json", cfg.LogFormat)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "config.toml", baseConfig)

	t.Setenv("ENRICHER_VERSION", "2.0.0")
	t.Setenv("ENRICHER_SERVER_PORT", "3000")
	t.Setenv("ENRICHER_QUEUE_ADDR", "redis:6379")
	t.Setenv("ENRICHER_ENRICHMENT_MAX_ATTEMPTS", "3")
	t.Setenv("ENRICHER_AUTH_SCOPE", "custom_scope")
	t.Setenv("ENRICHER_API_MAX_UPLOAD_SIZE", "10MB")

	cfg, err := config.LoadFrom(base)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Queue.Addr != "redis:6379" {
		t.Errorf("queue addr: got %s", cfg.Queue.Addr)
	}
	if cfg.Enrichment.Attempts() != 3 {
		t.Errorf("enrichment max_attempts: got %d, want 3", cfg.Enrichment.Attempts())
	}
	if cfg.Auth.Scope != "custom_scope" {
		t.Errorf("auth scope: got %s", cfg.Auth.Scope)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 10*1024*1024 {
		t.Errorf("max upload: got %d", got)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("ENRICHER_DB_NAME", "testdb")
	t.Setenv("ENRICHER_DB_USER", "testuser")
	t.Setenv("ENRICHER_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.LoadFrom(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path default: got %s", cfg.API.BasePath)
	}
	if cfg.Enrichment.BaseURL == "" {
		t.Error("enrichment base_url default not applied")
	}
	if cfg.OIDC.Enabled {
		t.Error("oidc enabled by default")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "config.toml", minimalConfig)

	cfg, err := config.LoadFrom(base)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.Pagination.DefaultPageSize != 20 || cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination defaults: got %+v", cfg.API.Pagination)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 50*1024*1024 {
		t.Errorf("max upload default: got %d", got)
	}
	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "malformed toml",
			config:  `[server`,
			wantErr: "parse config",
		},
		{
			name:    "invalid port",
			config:  minimalConfig + "\n[server]\nport = 99999\n",
			wantErr: "invalid port",
		},
		{
			name:    "invalid ready timeout",
			config:  minimalConfig,
			env:     map[string]string{"ENRICHER_SERVER_READY_TIMEOUT": "soon"},
			wantErr: "invalid ready_timeout",
		},
		{
			name:    "non-positive idle timeout",
			config:  minimalConfig,
			env:     map[string]string{"ENRICHER_SERVER_IDLE_TIMEOUT": "0s"},
			wantErr: "idle_timeout must be positive",
		},
		{
			name:    "header timeout exceeds read timeout",
			config:  minimalConfig + "\n[server]\nread_timeout = \"5s\"\nread_header_timeout = \"10s\"\n",
			wantErr: "read_header_timeout",
		},
		{
			name:    "invalid log format",
			config:  "log_format = \"xml\"\n" + minimalConfig,
			wantErr: "invalid log_format",
		},
		{
			name:    "missing storage connection",
			config:  "[database]\nname = \"enricher\"\nuser = \"enricher\"\n",
			wantErr: "storage",
		},
		{
			name:    "invalid upload size",
			config:  minimalConfig,
			env:     map[string]string{"ENRICHER_API_MAX_UPLOAD_SIZE": "lots"},
			wantErr: "invalid max_upload_size",
		},
		{
			name:    "invalid base path",
			config:  minimalConfig,
			env:     map[string]string{"ENRICHER_API_BASE_PATH": "api"},
			wantErr: "invalid base_path",
		},
		{
			name:    "oidc without issuer",
			config:  minimalConfig,
			env:     map[string]string{"ENRICHER_OIDC_ENABLED": "true"},
			wantErr: "oidc",
		},
		{
			name:    "invalid enrichment url",
			config:  minimalConfig,
			env:     map[string]string{"ENRICHER_ENRICHMENT_BASE_URL": "not a url"},
			wantErr: "enrichment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			base := writeConfig(t, t.TempDir(), "config.toml", tt.config)

			_, err := config.LoadFrom(base)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestFinalizeClient(t *testing.T) {
	t.Setenv("ENRICHER_AUTH_CLIENT_ID", "svc")
	t.Setenv("ENRICHER_AUTH_CLIENT_SECRET", "secret")

	cfg := &config.Config{}
	if err := cfg.FinalizeClient(); err != nil {
		t.Fatalf("FinalizeClient() error = %v", err)
	}

	if !cfg.Auth.Configured() {
		t.Error("auth credentials not loaded from env")
	}
	if cfg.Enrichment.MaxConcurrent < 1 {
		t.Error("enrichment defaults not applied")
	}
	if cfg.Database.Name != "" {
		t.Error("database section should be left untouched")
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		size string
		want int64
	}{
		{"50MB", 50 * 1024 * 1024},
		{"512KB", 512 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"2048", 2048},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServerConfig(t *testing.T) {
	t.Setenv(config.EnvServerReadyTimeout, "750ms")

	cfg := &config.ServerConfig{}
	cfg.Merge(&config.ServerConfig{Port: 9000, IdleTimeout: "90s"})
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"read", cfg.ReadTimeoutDuration(), 5 * time.Minute},
		{"read header", cfg.ReadHeaderTimeoutDuration(), 10 * time.Second},
		{"write", cfg.WriteTimeoutDuration(), 2 * time.Minute},
		{"idle from overlay", cfg.IdleTimeoutDuration(), 90 * time.Second},
		{"shutdown", cfg.ShutdownTimeoutDuration(), 30 * time.Second},
		{"ready from env", cfg.ReadyTimeoutDuration(), 750 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if addr := cfg.Addr(); addr != "0.0.0.0:9000" {
		t.Errorf("addr: got %s, want 0.0.0.0:9000", addr)
	}
}
