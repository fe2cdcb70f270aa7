package enrichment

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/enricher/pkg/formatting"
)

var pdfMagic = []byte("%PDF")

// Invocation is one pipeline run. ContentType overrides the profile's
// upload content type when set.
type Invocation struct {
	Token       string
	Reference   Reference
	Profile     *Profile
	ContentType string
}

// Output is what a non-fatal run publishes. ResourceKey and Result are always
// set; Result is all-empty when the job timed out.
type Output struct {
	ResourceKey string `json:"resource_key"`
	JobID       string `json:"job_id"`
	State       State  `json:"state"`
	Result      Result `json:"result"`
	Attempts    int    `json:"attempts"`
	Size        int64  `json:"size"`
}

// Pipeline sequences resolve, provision, transport, submit, poll, and
// extract. Holds no per-run state and may serve concurrent runs.
type Pipeline struct {
	resolver *Resolver
	client   *Client
	poller   *Poller
	logger   *slog.Logger
}

// NewPipeline assembles a Pipeline from its parts.
func NewPipeline(resolver *Resolver, client *Client, poller *Poller, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		client:   client,
		poller:   poller,
		logger:   logger.With("system", "enrichment"),
	}
}

// New builds a Pipeline from configuration using the default sleeper.
func New(cfg *Config, content ContentFetcher, httpClient *http.Client, logger *slog.Logger) *Pipeline {
	client := NewClient(cfg.BaseURL, httpClient, logger)
	return NewPipeline(
		NewResolver(content, cfg.Extensions...),
		client,
		NewPoller(client, cfg.Attempts(), cfg.PollIntervalDuration(), nil, logger),
		logger,
	)
}

// Run executes inv. Any failure before polling completes aborts the run and
// nothing is published. A poll that times out is not an error.
func (p *Pipeline) Run(ctx context.Context, inv Invocation) (*Output, error) {
	if inv.Token == "" {
		return nil, ErrMissingToken
	}
	if inv.Profile == nil {
		return nil, fmt.Errorf("%w: no profile", ErrUnknownProfile)
	}

	profile := inv.Profile
	contentType := inv.ContentType
	if contentType == "" {
		contentType = profile.UploadType
	}

	logger := p.logger.With("profile", profile.Name)

	data, err := p.resolver.Resolve(ctx, inv.Reference)
	if err != nil {
		return nil, fmt.Errorf("resolve payload: %w", err)
	}
	p.inspect(logger, data, contentType)

	target, err := p.client.Provision(ctx, inv.Token, contentType)
	if err != nil {
		return nil, err
	}
	logger = logger.With("resource_key", target.ResourceKey)

	if err := p.client.Transport(ctx, target, contentType, data); err != nil {
		return nil, err
	}

	jobID, err := p.client.Submit(ctx, inv.Token, profile.Request(target.ResourceKey))
	if err != nil {
		return nil, err
	}
	logger = logger.With("job_id", jobID)
	logger.Info("job submitted")

	job := &Job{ID: jobID, Status: JobProcessing}

	outcome, err := p.poller.Poll(ctx, inv.Token, job, profile.Readiness)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ResourceKey: target.ResourceKey,
		JobID:       jobID,
		State:       outcome.State,
		Attempts:    outcome.Attempts,
		Size:        int64(len(data)),
	}

	if outcome.State != StateReady {
		logger.Warn("results not ready after max polling attempts", "attempts", outcome.Attempts)
		out.Result = profile.Empty()
		return out, nil
	}

	result, found := profile.Extract(outcome.Result)
	if !found {
		logger.Warn("expected result container missing", "container", profile.Container)
	}
	out.Result = result

	logger.Info("job complete", "attempts", outcome.Attempts)
	return out, nil
}

func (p *Pipeline) inspect(logger *slog.Logger, data []byte, contentType string) {
	head := data[:min(len(data), 8)]
	logger.Info(
		"payload resolved",
		"size", formatting.FormatBytes(int64(len(data)), 1),
		"head", hex.EncodeToString(head),
		"content_type", contentType,
	)

	if contentType == "application/pdf" && !bytes.HasPrefix(data, pdfMagic) {
		logger.Warn("payload does not start with PDF header")
	}
}
