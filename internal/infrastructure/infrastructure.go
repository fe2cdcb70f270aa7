// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, queue,
// outbound HTTP) that domain systems require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/pkg/database"
	"github.com/JaimeStill/enricher/pkg/lifecycle"
	"github.com/JaimeStill/enricher/pkg/queue"
	"github.com/JaimeStill/enricher/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Queue      queue.System
	HTTPClient *http.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(os.Stderr, cfg.LogFormat)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Storage:    store,
		Queue:      queue.New(&cfg.Queue, logger),
		HTTPClient: NewHTTPClient(cfg),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Queue.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("queue start failed: %w", err)
	}
	return nil
}

// NewLogger returns a text logger, or a JSON logger when format is "json".
func NewLogger(w io.Writer, format string) *slog.Logger {
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

// NewHTTPClient returns the client shared by outbound enrichment and token
// calls, bounded by the enrichment request timeout.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Enrichment.RequestTimeoutDuration()}
}
