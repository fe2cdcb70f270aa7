package infrastructure_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/enricher/internal/config"
	"github.com/JaimeStill/enricher/internal/enrichment"
	"github.com/JaimeStill/enricher/internal/infrastructure"
	"github.com/JaimeStill/enricher/pkg/database"
	"github.com/JaimeStill/enricher/pkg/queue"
	"github.com/JaimeStill/enricher/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "enricher",
			User:            "enricher",
			Password:        "enricher",
			SSLMode:         "disable",
			MaxConns:        10,
			ConnMaxLifetime: "30m",
			ConnMaxIdleTime: "5m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "payloads",
			ConnectionString: azuriteConnString,
		},
		Queue: queue.Config{
			Addr:         "localhost:6379",
			Key:          "enricher:runs",
			ClaimTimeout: "5s",
			ReapBatch:    100,
		},
		Enrichment: enrichment.Config{
			RequestTimeout: "45s",
		},
		Version:   "0.1.0",
		LogFormat: config.LogFormatText,
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil || infra.Database.Pool() == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
	if infra.Queue == nil || infra.Queue.Client() == nil {
		t.Error("Queue is nil")
	}
	if infra.HTTPClient == nil || infra.HTTPClient.Timeout != 45*time.Second {
		t.Errorf("HTTPClient timeout = %v, want 45s", infra.HTTPClient.Timeout)
	}

	infra.Database.Pool().Close()
	infra.Queue.Client().Close()
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	if _, err := infrastructure.New(cfg); err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: config.LogFormatText,
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "run=r1") {
					t.Errorf("text output = %q", out)
				}
			},
		},
		{
			format: config.LogFormatJSON,
			check: func(t *testing.T, out string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(out), &entry); err != nil {
					t.Fatalf("json output %q: %v", out, err)
				}
				if entry["msg"] != "hello" || entry["run"] != "r1" {
					t.Errorf("json entry = %v", entry)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			infrastructure.NewLogger(&buf, tt.format).Info("hello", "run", "r1")
			tt.check(t, buf.String())
		})
	}
}
