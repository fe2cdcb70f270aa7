// Package runs exposes the enrichment pipeline as an asynchronous service.
// A run archives an uploaded payload, is queued for a worker, and records
// the pipeline outcome once processed.
package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/enricher/internal/enrichment"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further processing will occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusTimedOut || s == StatusFailed
}

// Run is one enrichment request and its recorded outcome.
type Run struct {
	ID          uuid.UUID         `json:"id"`
	Profile     string            `json:"profile"`
	ContentType string            `json:"content_type"`
	Filename    string            `json:"filename"`
	SizeBytes   int64             `json:"size_bytes"`
	PageCount   *int              `json:"page_count"`
	StorageKey  string            `json:"storage_key"`
	Status      Status            `json:"status"`
	ResourceKey *string           `json:"resource_key"`
	JobID       *string           `json:"job_id"`
	Result      enrichment.Result `json:"result"`
	Error       *string           `json:"error"`
	Attempts    int               `json:"attempts"`
	SubmittedBy *string           `json:"submitted_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateCommand carries an uploaded payload. PageCount is nil for non-PDF
// payloads or when it could not be read.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Profile     string
	PageCount   *int
	SubmittedBy string
}

// Outcome is what a processed run records.
type Outcome struct {
	Status      Status
	ResourceKey string
	JobID       string
	Attempts    int
	Result      enrichment.Result
	Error       string
}

func outcomeFrom(out *enrichment.Output) Outcome {
	status := StatusCompleted
	if out.State == enrichment.StateTimedOut {
		status = StatusTimedOut
	}
	return Outcome{
		Status:      status,
		ResourceKey: out.ResourceKey,
		JobID:       out.JobID,
		Attempts:    out.Attempts,
		Result:      out.Result,
	}
}
