// Package routes declares HTTP routes as nested, prefixed groups and
// registers them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group is a set of routes under a shared prefix. Middleware wraps every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware []func(http.Handler) http.Handler
	Routes     []Route
	Children   []Group
}

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		register(mux, "", nil, g)
	}
}

func register(mux *http.ServeMux, prefix string, inherited []func(http.Handler) http.Handler, g Group) {
	prefix += g.Prefix
	stack := append(inherited[:len(inherited):len(inherited)], g.Middleware...)

	for _, r := range g.Routes {
		var h http.Handler = r.Handler
		for i := len(stack) - 1; i >= 0; i-- {
			h = stack[i](h)
		}
		mux.Handle(r.Method+" "+prefix+r.Pattern, h)
	}

	for _, child := range g.Children {
		register(mux, prefix, stack, child)
	}
}
