package main

import (
	"context"
	"time"

	"github.com/JaimeStill/enricher/internal/api"
	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/infrastructure"
	"github.com/JaimeStill/enricher/pkg/middleware"
	"github.com/JaimeStill/enricher/pkg/module"
)

const discoveryTimeout = 10 * time.Second

// Modules holds the mounted HTTP modules.
type Modules struct {
	API *module.Module
}

// NewModules builds the API module, discovering the OIDC issuer when
// bearer verification is enabled.
func NewModules(cfg *config.Config, runtime *api.Runtime, domain *api.Domain) (*Modules, error) {
	var verifier middleware.Verifier
	if cfg.OIDC.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
		defer cancel()

		v, err := middleware.NewVerifier(ctx, &cfg.OIDC)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	apiModule, err := api.NewModule(cfg, runtime, domain, verifier)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(cfg *config.Config, infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	registerHealth(router, infra.Lifecycle, cfg.Server.ReadyTimeoutDuration())
	return router
}
