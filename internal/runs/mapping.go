package runs

import (
	"net/url"

	"github.com/JaimeStill/enricher/pkg/query"
	"github.com/JaimeStill/enricher/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("profile", "Profile").
	Project("content_type", "ContentType").
	Project("filename", "Filename").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("resource_key", "ResourceKey").
	Project("job_id", "JobID").
	Project("result", "Result").
	Project("error", "Error").
	Project("attempts", "Attempts").
	Project("submitted_by", "SubmittedBy").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const returning = `id, profile, content_type, filename, size_bytes, page_count, storage_key, status,
	resource_key, job_id, result, error, attempts, submitted_by, created_at, updated_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows run queries. Nil fields are ignored.
type Filters struct {
	Status      *string
	Profile     *string
	SubmittedBy *string
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("Profile", f.Profile).
		WhereEquals("SubmittedBy", f.SubmittedBy)
}

// FiltersFromQuery reads status, profile, and submitted_by.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if p := values.Get("profile"); p != "" {
		f.Profile = &p
	}
	if s := values.Get("submitted_by"); s != "" {
		f.SubmittedBy = &s
	}
	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.Profile,
		&r.ContentType,
		&r.Filename,
		&r.SizeBytes,
		&r.PageCount,
		&r.StorageKey,
		&r.Status,
		&r.ResourceKey,
		&r.JobID,
		&r.Result,
		&r.Error,
		&r.Attempts,
		&r.SubmittedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
