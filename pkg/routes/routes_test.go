package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/enricher/pkg/routes"
)

func tag(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Trace", name)
			next.ServeHTTP(w, r)
		})
	}
}

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix:     "/runs",
		Middleware: []func(http.Handler) http.Handler{tag("outer")},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: ok},
			{Method: "GET", Pattern: "/{id}", Handler: ok},
		},
		Children: []routes.Group{{
			Prefix:     "/{id}/result",
			Middleware: []func(http.Handler) http.Handler{tag("inner")},
			Routes:     []routes.Route{{Method: "GET", Pattern: "", Handler: ok}},
		}},
	}, routes.Group{
		Routes: []routes.Route{{Method: "GET", Pattern: "/healthz", Handler: ok}},
	})

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantTrace  string
	}{
		{"GET", "/runs", http.StatusOK, "outer"},
		{"GET", "/runs/abc", http.StatusOK, "outer"},
		{"GET", "/runs/abc/result", http.StatusOK, "outer,inner"},
		{"GET", "/healthz", http.StatusOK, ""},
		{"POST", "/runs/abc", http.StatusMethodNotAllowed, ""},
		{"GET", "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.Join(rec.Header().Values("X-Trace"), ","); got != tt.wantTrace {
				t.Errorf("trace: got %q, want %q", got, tt.wantTrace)
			}
		})
	}
}
