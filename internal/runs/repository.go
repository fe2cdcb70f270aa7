package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JaimeStill/enricher/internal/enrichment"
	"github.com/JaimeStill/enricher/pkg/pagination"
	"github.com/JaimeStill/enricher/pkg/query"
	"github.com/JaimeStill/enricher/pkg/queue"
	"github.com/JaimeStill/enricher/pkg/repository"
	"github.com/JaimeStill/enricher/pkg/storage"
)

type repo struct {
	db         *pgxpool.Pool
	storage    storage.System
	queue      queue.Queue
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface.
func New(
	db *pgxpool.Pool,
	store storage.System,
	q queue.Queue,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		queue:      q,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "ResourceKey").
		OrderBy(page.Sort)
	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryCount(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Result(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !run.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotComplete, id, run.Status)
	}
	return run, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Run, error) {
	if _, err := enrichment.LookupProfile(cmd.Profile); err != nil {
		return nil, err
	}
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidFile)
	}

	id := uuid.New()
	key := payloadKey(id, cmd.Filename)

	meta := map[string]string{"run_id": id.String(), "profile": cmd.Profile}
	if err := r.storage.Put(ctx, key, cmd.Data, cmd.ContentType, meta); err != nil {
		return nil, fmt.Errorf("archive payload: %w", err)
	}

	var submittedBy *string
	if cmd.SubmittedBy != "" {
		submittedBy = &cmd.SubmittedBy
	}

	q := `
		INSERT INTO runs(id, profile, content_type, filename, size_bytes, page_count, storage_key, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + returning

	args := []any{
		id,
		cmd.Profile,
		cmd.ContentType,
		cmd.Filename,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
		submittedBy,
	}

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.queue.Enqueue(ctx, id.String()); err != nil {
		r.logger.Error("run recorded but not queued", "id", id, "error", err)
		if ferr := r.Finish(ctx, id, Outcome{Status: StatusFailed, Error: err.Error()}); ferr != nil {
			r.logger.Error("mark unqueued run failed", "id", id, "error", ferr)
		}
		return nil, fmt.Errorf("queue run: %w", err)
	}

	r.logger.Info("run created", "id", run.ID, "profile", run.Profile, "filename", run.Filename)
	return &run, nil
}

func (r *repo) Claim(ctx context.Context, id uuid.UUID) (*Run, error) {
	q := `
		UPDATE runs SET status = 'running', updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'running')
		RETURNING ` + returning

	run, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Finish(ctx context.Context, id uuid.UUID, outcome Outcome) error {
	var result any
	if outcome.Result != nil {
		result = outcome.Result
	}

	_, err := repository.WithTx(ctx, r.db, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx, `
			UPDATE runs SET
				status = $2,
				resource_key = NULLIF($3, ''),
				job_id = NULLIF($4, ''),
				attempts = $5,
				result = $6,
				error = NULLIF($7, ''),
				updated_at = now()
			WHERE id = $1`,
			id,
			outcome.Status,
			outcome.ResourceKey,
			outcome.JobID,
			outcome.Attempts,
			result,
			outcome.Error,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if outcome.Result != nil {
		r.archiveResult(ctx, id, outcome)
	}
	return nil
}

func (r *repo) archiveResult(ctx context.Context, id uuid.UUID, outcome Outcome) {
	doc, err := json.Marshal(map[string]any{
		"run_id":       id,
		"status":       outcome.Status,
		"resource_key": outcome.ResourceKey,
		"job_id":       outcome.JobID,
		"result":       outcome.Result,
	})
	if err != nil {
		r.logger.Warn("encode result document failed", "id", id, "error", err)
		return
	}

	key := path.Join("runs", id.String(), "result.json")
	if err := r.storage.Put(ctx, key, doc, "application/json", nil); err != nil {
		r.logger.Warn("archive result failed", "id", id, "key", key, "error", err)
	}
}

func payloadKey(id uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" || strings.Contains(name, "..") {
		name = "payload"
	}
	return path.Join("runs", id.String(), name)
}
