package enrichment_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/enricher/internal/enrichment"
)

var testEnv = &enrichment.Env{
	BaseURL:        "TEST_ENRICHMENT_BASE_URL",
	MaxAttempts:    "TEST_ENRICHMENT_MAX_ATTEMPTS",
	PollInterval:   "TEST_ENRICHMENT_POLL_INTERVAL",
	RequestTimeout: "TEST_ENRICHMENT_REQUEST_TIMEOUT",
	MaxConcurrent:  "TEST_ENRICHMENT_MAX_CONCURRENT",
	Extensions:     "TEST_ENRICHMENT_EXTENSIONS",
}

func intPtr(n int) *int { return &n }

func TestConfigDefaults(t *testing.T) {
	cfg := &enrichment.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.BaseURL != enrichment.DefaultBaseURL {
		t.Errorf("base url: got %q", cfg.BaseURL)
	}
	if cfg.Attempts() != 12 {
		t.Errorf("max attempts: got %d, want 12", cfg.Attempts())
	}
	if cfg.PollIntervalDuration() != 10*time.Second {
		t.Errorf("poll interval: got %v, want 10s", cfg.PollIntervalDuration())
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("max concurrent: got %d, want 4", cfg.MaxConcurrent)
	}
	if len(cfg.Extensions) != len(enrichment.DefaultExtensions) {
		t.Errorf("extensions: got %v", cfg.Extensions)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_ENRICHMENT_BASE_URL", "http://localhost:9000/api")
	t.Setenv("TEST_ENRICHMENT_MAX_ATTEMPTS", "3")
	t.Setenv("TEST_ENRICHMENT_POLL_INTERVAL", "250ms")
	t.Setenv("TEST_ENRICHMENT_MAX_CONCURRENT", "8")
	t.Setenv("TEST_ENRICHMENT_EXTENSIONS", ".pdf, .tiff ,")

	cfg := &enrichment.Config{}
	if err := cfg.Finalize(testEnv); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.BaseURL != "http://localhost:9000/api" {
		t.Errorf("base url: got %q", cfg.BaseURL)
	}
	if cfg.Attempts() != 3 {
		t.Errorf("max attempts: got %d, want 3", cfg.Attempts())
	}
	if cfg.PollIntervalDuration() != 250*time.Millisecond {
		t.Errorf("poll interval: got %v", cfg.PollIntervalDuration())
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("max concurrent: got %d", cfg.MaxConcurrent)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".tiff" {
		t.Errorf("extensions: got %v", cfg.Extensions)
	}
}

func TestConfigZeroAttempts(t *testing.T) {
	tests := []struct {
		name string
		cfg  enrichment.Config
		env  string
	}{
		{"explicit zero", enrichment.Config{MaxAttempts: intPtr(0)}, ""},
		{"env zero", enrichment.Config{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("TEST_ENRICHMENT_MAX_ATTEMPTS", tt.env)
			}
			cfg := tt.cfg
			if err := cfg.Finalize(testEnv); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if cfg.Attempts() != 0 {
				t.Errorf("max attempts: got %d, want 0", cfg.Attempts())
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  enrichment.Config
	}{
		{"relative base url", enrichment.Config{BaseURL: "/api"}},
		{"negative attempts", enrichment.Config{MaxAttempts: intPtr(-1)}},
		{"bad interval", enrichment.Config{PollInterval: "soon"}},
		{"bad request timeout", enrichment.Config{RequestTimeout: "later"}},
		{"negative concurrency", enrichment.Config{MaxConcurrent: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := &enrichment.Config{
		BaseURL:      "https://a.example",
		MaxAttempts:  intPtr(12),
		PollInterval: "10s",
	}
	base.Merge(&enrichment.Config{Extensions: []string{".png"}})
	if base.Attempts() != 12 {
		t.Errorf("unset overlay attempts: got %d, want 12", base.Attempts())
	}
	base.Merge(&enrichment.Config{MaxAttempts: intPtr(2)})

	if base.BaseURL != "https://a.example" {
		t.Errorf("base url: got %q", base.BaseURL)
	}
	if base.Attempts() != 2 {
		t.Errorf("max attempts: got %d", base.Attempts())
	}
	if base.PollInterval != "10s" {
		t.Errorf("poll interval: got %q", base.PollInterval)
	}
	if len(base.Extensions) != 1 {
		t.Errorf("extensions: got %v", base.Extensions)
	}
}
