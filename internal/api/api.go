// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/runs"
	"github.com/JaimeStill/enricher/pkg/middleware"
	"github.com/JaimeStill/enricher/pkg/module"
	"github.com/JaimeStill/enricher/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
// A nil verifier leaves the API unauthenticated. The OpenAPI document is
// always served without authentication.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain, verifier middleware.Verifier) (*module.Module, error) {
	var guards []func(http.Handler) http.Handler
	if verifier != nil {
		guards = append(guards, middleware.Bearer(verifier, runtime.Logger))
	}

	mux := http.NewServeMux()
	registerRoutes(mux, runtime, domain, guards)

	specHandler, err := openapi.Handler(buildSpec(cfg))
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", specHandler)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}

func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(
		"Enricher API",
		cfg.Version,
		"Submits payloads to the context enrichment service and records the extracted results.",
	)
	spec.AddServer(cfg.API.BasePath)
	spec.AddSchemas(runs.Schemas())
	spec.AddPaths("", runs.Paths())
	return spec
}
