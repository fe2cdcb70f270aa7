package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/enricher/internal/auth"
	"github.com/JaimeStill/enricher/internal/enrichment"
)

// Runner executes one enrichment invocation.
type Runner interface {
	Run(ctx context.Context, inv enrichment.Invocation) (*enrichment.Output, error)
}

// Blobs reads archived payloads. storage.System satisfies it.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Processor runs queued runs through the pipeline and records outcomes.
type Processor struct {
	store  Store
	blobs  Blobs
	tokens auth.TokenSource
	runner Runner
	logger *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(store Store, blobs Blobs, tokens auth.TokenSource, runner Runner, logger *slog.Logger) *Processor {
	return &Processor{
		store:  store,
		blobs:  blobs,
		tokens: tokens,
		runner: runner,
		logger: logger.With("system", "runs-processor"),
	}
}

// Process claims run id, executes it, and records the outcome. Pipeline
// failures are recorded as failed runs and are not returned. When ctx is
// cancelled mid-run nothing is recorded and ctx's error is returned so the
// id can be redelivered. Claim and record failures wrap ErrStore; the run
// is still owed an outcome.
func (p *Processor) Process(ctx context.Context, id string) error {
	runID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: queued id %q", ErrInvalidID, id)
	}

	run, err := p.store.Claim(ctx, runID)
	if errors.Is(err, ErrNotFound) {
		p.logger.Warn("run missing or already finished, skipping", "id", runID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: claim run %s: %w", ErrStore, runID, err)
	}

	logger := p.logger.With("id", runID, "profile", run.Profile)
	logger.Info("run started")
	start := time.Now()

	outcome, err := p.execute(ctx, run)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "error", err)
			return ctx.Err()
		}
		logger.Error("run failed", "error", err)
		outcome = Outcome{Status: StatusFailed, Error: err.Error()}
	}

	if err := p.store.Finish(ctx, runID, outcome); err != nil {
		return fmt.Errorf("%w: record run %s: %w", ErrStore, runID, err)
	}

	logger.Info("run finished", "status", outcome.Status, "attempts", outcome.Attempts, "duration", time.Since(start))
	return nil
}

func (p *Processor) execute(ctx context.Context, run *Run) (Outcome, error) {
	profile, err := enrichment.LookupProfile(run.Profile)
	if err != nil {
		return Outcome{}, err
	}

	data, err := p.blobs.Get(ctx, run.StorageKey)
	if err != nil {
		return Outcome{}, fmt.Errorf("load payload: %w", err)
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", enrichment.ErrMissingToken, err)
	}

	out, err := p.runner.Run(ctx, enrichment.Invocation{
		Token:       token,
		Reference:   enrichment.RawBytes(data),
		Profile:     profile,
		ContentType: run.ContentType,
	})
	if err != nil {
		return Outcome{}, err
	}

	return outcomeFrom(out), nil
}
