package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"

	"github.com/JaimeStill/enricher/internal/api"
	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/infrastructure"
	"github.com/JaimeStill/enricher/internal/runs"
	"github.com/JaimeStill/enricher/pkg/lifecycle"
	"github.com/JaimeStill/enricher/pkg/middleware"
	"github.com/JaimeStill/enricher/pkg/pagination"
	"github.com/JaimeStill/enricher/pkg/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStorage struct {
	blobs map[string][]byte
}

func (s *fakeStorage) Start(*lifecycle.Coordinator) error { return nil }

func (s *fakeStorage) Put(_ context.Context, key string, data []byte, _ string, _ map[string]string) error {
	s.blobs[key] = data
	return nil
}

func (s *fakeStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

type fakeRuns struct {
	runs.System
	pagination pagination.Config
	listedBy   string
}

func (f *fakeRuns) Handler(maxUploadSize int64) *runs.Handler {
	return runs.NewHandler(f, discardLogger(), f.pagination, maxUploadSize)
}

func (f *fakeRuns) List(ctx context.Context, page pagination.PageRequest, _ runs.Filters) (*pagination.PageResult[runs.Run], error) {
	f.listedBy = middleware.Subject(ctx)
	result := pagination.NewPageResult([]runs.Run{}, 0, page.Page, page.PageSize)
	return &result, nil
}

func (f *fakeRuns) Find(context.Context, uuid.UUID) (*runs.Run, error) {
	return nil, runs.ErrNotFound
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, raw string) (*oidc.IDToken, error) {
	if raw != "good" {
		return nil, errors.New("bad signature")
	}
	return &oidc.IDToken{Subject: "alice"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "1MB",
			Pagination:    pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		},
	}
}

func setup(t *testing.T, verifier middleware.Verifier) (http.Handler, *fakeRuns) {
	t.Helper()

	cfg := testConfig()
	infra := &infrastructure.Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    discardLogger(),
		Storage: &fakeStorage{blobs: map[string][]byte{
			"runs/abc/result.json": []byte(`{"manufacturer":"Toyota"}`),
			"runs/abc/claim.pdf":   []byte("%PDF-1.7\n"),
		}},
	}

	runtime := api.NewRuntime(cfg, infra)
	fr := &fakeRuns{pagination: runtime.Pagination}
	domain := &api.Domain{Runs: fr}

	m, err := api.NewModule(cfg, runtime, domain, verifier)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	return m, fr
}

func TestNewRuntime(t *testing.T) {
	cfg := testConfig()
	infra := &infrastructure.Infrastructure{Logger: discardLogger()}

	runtime := api.NewRuntime(cfg, infra)

	if runtime.MaxUploadSize != 1024*1024 {
		t.Errorf("MaxUploadSize = %d, want 1MB", runtime.MaxUploadSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("Pagination = %+v", runtime.Pagination)
	}
	if runtime.Logger == infra.Logger {
		t.Error("runtime logger should be module scoped")
	}
}

func TestModuleRoutes(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   string
	}{
		{"list runs", "/api/runs", http.StatusOK, "application/json"},
		{"find missing run", "/api/runs/" + uuid.NewString(), http.StatusNotFound, "application/json"},
		{"result document", "/api/storage/download/runs/abc/result.json", http.StatusOK, "application/json"},
		{"archived payload", "/api/storage/download/runs/abc/claim.pdf", http.StatusOK, "application/pdf"},
		{"missing blob", "/api/storage/download/runs/abc/other.bin", http.StatusNotFound, "application/json"},
		{"outside archive", "/api/storage/download/secrets/key", http.StatusBadRequest, "application/json"},
		{"openapi document", "/api/openapi.json", http.StatusOK, "application/json; charset=utf-8"},
		{"unknown route", "/api/documents", http.StatusNotFound, ""},
	}

	handler, _ := setup(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("content type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
		})
	}
}

func TestModuleBearer(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		auth        string
		wantStatus  int
		wantSubject string
	}{
		{"runs without token", "/api/runs", "", http.StatusUnauthorized, ""},
		{"runs with bad token", "/api/runs", "Bearer forged", http.StatusUnauthorized, ""},
		{"runs with token", "/api/runs", "Bearer good", http.StatusOK, "alice"},
		{"storage without token", "/api/storage/download/runs/abc/result.json", "", http.StatusUnauthorized, ""},
		{"storage with token", "/api/storage/download/runs/abc/result.json", "Bearer good", http.StatusOK, ""},
		{"openapi without token", "/api/openapi.json", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, fr := setup(t, fakeVerifier{})

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if fr.listedBy != tt.wantSubject {
				t.Errorf("subject = %q, want %q", fr.listedBy, tt.wantSubject)
			}
		})
	}
}

func TestOpenAPIDocument(t *testing.T) {
	handler, _ := setup(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/openapi.json", nil))

	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Servers []struct{ URL string }     `json:"servers"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api" {
		t.Errorf("servers = %+v", doc.Servers)
	}
	for _, p := range []string{"/runs", "/runs/{id}", "/runs/{id}/result"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("path %s missing", p)
		}
	}
}
