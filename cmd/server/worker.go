package main

import (
	"github.com/JaimeStill/enricher/internal/api"
	"github.com/JaimeStill/enricher/internal/auth"
	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/content"
	"github.com/JaimeStill/enricher/internal/enrichment"
	"github.com/JaimeStill/enricher/internal/infrastructure"
	"github.com/JaimeStill/enricher/internal/runs"
)

// newWorkerPool wires the enrichment pipeline behind the run queue. The pool
// runs as many runs at once as the enrichment service allows.
func newWorkerPool(cfg *config.Config, infra *infrastructure.Infrastructure, domain *api.Domain) *runs.Pool {
	logger := infra.Logger.With("module", "worker")

	var fetcher enrichment.ContentFetcher
	if cfg.Content.Enabled() {
		fetcher = content.New(&cfg.Content, nil, logger)
	}

	pipeline := enrichment.New(&cfg.Enrichment, fetcher, infra.HTTPClient, logger)
	tokens := auth.New(&cfg.Auth, infra.HTTPClient, logger)
	processor := runs.NewProcessor(domain.Runs, infra.Storage, tokens, pipeline, logger)

	return runs.NewPool(infra.Queue, processor, cfg.Enrichment.MaxConcurrent, logger)
}
