package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/enricher/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestToken(t *testing.T) {
	var calls atomic.Int32
	var form map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"scope":         r.PostForm.Get("scope"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
		}
		if _, _, ok := r.BasicAuth(); ok {
			t.Error("credentials sent as basic auth")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "abc123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	cfg := &auth.Config{TokenURL: srv.URL, ClientID: "id", ClientSecret: "secret"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	src := auth.New(cfg, srv.Client(), discardLogger())

	for range 2 {
		tok, err := src.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok != "abc123" {
			t.Errorf("token: got %q, want abc123", tok)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("token requests: got %d, want 1", calls.Load())
	}

	want := map[string]string{
		"grant_type":    "client_credentials",
		"scope":         auth.DefaultScope,
		"client_id":     "id",
		"client_secret": "secret",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("%s: got %q, want %q", k, form[k], v)
		}
	}
}

func TestTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	defer srv.Close()

	cfg := &auth.Config{TokenURL: srv.URL, ClientID: "id", ClientSecret: "wrong"}
	src := auth.New(cfg, srv.Client(), discardLogger())

	_, err := src.Token(context.Background())
	if !errors.Is(err, auth.ErrTokenRequest) {
		t.Fatalf("Token() error = %v, want ErrTokenRequest", err)
	}
}

func TestTokenNotConfigured(t *testing.T) {
	src := auth.New(&auth.Config{}, nil, discardLogger())

	_, err := src.Token(context.Background())
	if !errors.Is(err, auth.ErrNotConfigured) {
		t.Fatalf("Token() error = %v, want ErrNotConfigured", err)
	}
}

func TestConfig(t *testing.T) {
	t.Setenv("TEST_AUTH_CLIENT_ID", "env-id")
	t.Setenv("TEST_AUTH_CLIENT_SECRET", "env-secret")

	cfg := &auth.Config{}
	err := cfg.Finalize(&auth.Env{
		ClientID:     "TEST_AUTH_CLIENT_ID",
		ClientSecret: "TEST_AUTH_CLIENT_SECRET",
	})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.TokenURL != auth.DefaultTokenURL {
		t.Errorf("token url: got %q", cfg.TokenURL)
	}
	if cfg.Scope != auth.DefaultScope {
		t.Errorf("scope: got %q", cfg.Scope)
	}
	if !cfg.Configured() {
		t.Error("expected configured credentials")
	}

	half := &auth.Config{ClientID: "only-id"}
	if err := half.Finalize(nil); err == nil {
		t.Error("expected error for client_id without client_secret")
	}
}
