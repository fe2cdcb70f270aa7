package main

import (
	"log/slog"
	"time"

	"github.com/JaimeStill/enricher/internal/api"
	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/infrastructure"
	"github.com/JaimeStill/enricher/internal/runs"
)

// Server owns the infrastructure, the HTTP listener, and the worker pool.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
	workers *runs.Pool
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	modules, err := NewModules(cfg, runtime, domain)
	if err != nil {
		return nil, err
	}

	router := buildRouter(cfg, infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"workers", cfg.Enrichment.MaxConcurrent,
		"oidc", cfg.OIDC.Enabled,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
		workers: newWorkerPool(cfg, infra, domain),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	s.workers.Start(s.infra.Lifecycle)

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

func (s *Server) logger() *slog.Logger {
	return s.infra.Logger
}
