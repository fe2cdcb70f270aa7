package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/enricher/pkg/pagination"
)

// System defines the public contract for run operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error)
	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	// Create archives the payload, records a pending run, and queues it.
	Create(ctx context.Context, cmd CreateCommand) (*Run, error)

	// Result returns the run once it is terminal, else ErrNotComplete.
	Result(ctx context.Context, id uuid.UUID) (*Run, error)

	Store
}

// Store is the persistence a Processor needs.
type Store interface {
	// Claim marks a pending or running run as running. Returns ErrNotFound
	// when the run is missing or already terminal.
	Claim(ctx context.Context, id uuid.UUID) (*Run, error)
	Finish(ctx context.Context, id uuid.UUID, outcome Outcome) error
}
