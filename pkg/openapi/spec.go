// Package openapi describes HTTP endpoints as an OpenAPI 3.1 document.
package openapi

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec with the shared error response components.
func NewSpec(title, version, description string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       title,
			Version:     version,
			Description: description,
		},
		Paths: make(map[string]*PathItem),
		Components: &Components{
			Schemas: map[string]*Schema{
				"Error": {
					Type: "object",
					Properties: map[string]*Schema{
						"error": {Type: "string", Description: "Error message"},
					},
				},
			},
			Responses: map[string]*Response{
				"BadRequest":   ResponseJSON("Invalid request", "Error"),
				"Unauthorized": ResponseJSON("Missing or invalid bearer token", "Error"),
				"NotFound":     ResponseJSON("Resource not found", "Error"),
				"Conflict":     ResponseJSON("Resource is not in the required state", "Error"),
			},
		},
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddPaths merges operations keyed by path, prefixing each path with base.
func (s *Spec) AddPaths(base string, paths map[string]*PathItem) {
	for p, item := range paths {
		s.Paths[base+p] = item
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (s *Spec) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(s.Components.Schemas, schemas)
}

// Handler serializes spec once and serves the bytes.
func Handler(spec *Spec) (http.HandlerFunc, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}, nil
}
