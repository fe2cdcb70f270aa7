// Command enrich runs one enrichment profile against a single payload and
// prints the published variables as JSON.
//
//	enrich -profile description -input photo.jpg
//	enrich -profile vehicle-metadata -input 42
//
// An integer input is read from the content store; other inputs may be a
// file path, a data URI, or base64 text.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/JaimeStill/enricher/internal/auth"
	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/content"
	"github.com/JaimeStill/enricher/internal/delegate"
	"github.com/JaimeStill/enricher/internal/enrichment"
	"github.com/JaimeStill/enricher/internal/infrastructure"
)

const descriptionWords = 200

type options struct {
	configPath string
	profile    string
	input      string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.BaseConfigFile, "Base config file")
	flag.StringVar(&opts.profile, "profile", enrichment.ProfileDescription, "Profile: description or vehicle-metadata")
	flag.StringVar(&opts.input, "input", "", "Payload reference: content id, file path, data URI, or base64")
	flag.Parse()

	if opts.input == "" {
		fmt.Fprintln(os.Stderr, "usage: enrich -profile description|vehicle-metadata -input <ref>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("enrichment failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLogger(os.Stderr, cfg.LogFormat).With("profile", opts.profile)
	httpClient := infrastructure.NewHTTPClient(cfg)

	var fetcher enrichment.ContentFetcher
	if cfg.Content.Enabled() {
		fetcher = content.New(&cfg.Content, nil, logger)
	}
	pipeline := enrichment.New(&cfg.Enrichment, fetcher, httpClient, logger)

	task, variable, err := taskFor(opts.profile, pipeline, logger)
	if err != nil {
		return err
	}

	exec := delegate.NewExecution(map[string]any{variable: inputValue(opts.input)})

	steps := []delegate.Delegate{
		delegate.NewFetchToken(auth.New(&cfg.Auth, httpClient, logger), logger),
		task,
	}
	for _, step := range steps {
		if err := step.Execute(ctx, exec); err != nil {
			return err
		}
	}

	published := exec.Snapshot()
	delete(published, delegate.VarAccessToken)
	delete(published, variable)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(published)
}

// loadConfig reads the base file and overlay like the server but only
// requires the remote service sections.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.FinalizeClient(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func taskFor(profile string, runner delegate.Runner, logger *slog.Logger) (delegate.Delegate, string, error) {
	p, err := enrichment.LookupProfile(profile)
	if err != nil {
		return nil, "", err
	}

	switch p.Name {
	case enrichment.ProfileVehicleMetadata:
		return delegate.NewExtractVehicleMetadata(runner, logger), delegate.VarPDF, nil
	default:
		return delegate.NewDescribeImage(runner, descriptionWords, logger), delegate.VarImageBase64, nil
	}
}

func inputValue(input string) any {
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		return id
	}
	return input
}
