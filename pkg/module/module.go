// Package module mounts independently middlewared handlers under
// single-segment path prefixes such as /api.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/enricher/pkg/middleware"
)

// Module serves an inner handler with its prefix stripped from the path.
type Module struct {
	prefix string
	inner  http.Handler
	stack  middleware.System
}

// New creates a Module. Panics unless prefix is a single segment with a
// leading slash.
func New(prefix string, inner http.Handler) *Module {
	if prefix == "" || !strings.HasPrefix(prefix, "/") || strings.Count(prefix, "/") != 1 {
		panic(fmt.Sprintf("module prefix must be a single-segment path like /api: %q", prefix))
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
		stack:  middleware.New(),
	}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	r2.URL.RawPath = ""

	m.stack.Apply(m.inner).ServeHTTP(w, r2)
}

// Router dispatches on the first path segment to a mounted Module and falls
// back to a native ServeMux.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers m under its prefix, replacing any module with the same prefix.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if m, ok := r.modules["/"+segment]; ok {
		m.ServeHTTP(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}
