package runs

import (
	"github.com/JaimeStill/enricher/pkg/openapi"
)

var statusEnum = []any{
	string(StatusPending),
	string(StatusRunning),
	string(StatusCompleted),
	string(StatusTimedOut),
	string(StatusFailed),
}

// Schemas returns the component schemas the run endpoints reference.
func Schemas() map[string]*openapi.Schema {
	nullableString := &openapi.Schema{Type: "string"}

	return map[string]*openapi.Schema{
		"Run": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"profile":      {Type: "string", Example: "vehicle-metadata"},
				"content_type": {Type: "string", Example: "application/pdf"},
				"filename":     {Type: "string"},
				"size_bytes":   {Type: "integer"},
				"page_count":   {Type: "integer", Description: "PDF payloads only"},
				"storage_key":  {Type: "string", Description: "Archived payload key"},
				"status":       {Type: "string", Enum: statusEnum},
				"resource_key": nullableString,
				"job_id":       nullableString,
				"result":       {Type: "object", Description: "Extracted fields by name"},
				"error":        nullableString,
				"attempts":     {Type: "integer"},
				"submitted_by": nullableString,
				"created_at":   {Type: "string", Format: "date-time"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
		"RunPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Run")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"RunResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"status":       {Type: "string", Enum: statusEnum},
				"resource_key": nullableString,
				"result":       {Type: "object"},
				"error":        nullableString,
			},
		},
	}
}

// Paths returns the run endpoints relative to the API base path.
func Paths() map[string]*openapi.PathItem {
	tags := []string{"Runs"}
	idParam := openapi.PathParam("id", "Run id")

	return map[string]*openapi.PathItem{
		"/runs": {
			Get: &openapi.Operation{
				Summary: "List runs",
				Tags:    tags,
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
					openapi.QueryParam("page_size", "integer", "Results per page", false),
					openapi.QueryParam("search", "string", "Matches filename or resource key", false),
					openapi.QueryParam("sort", "string", "Comma-separated view fields, - prefix for descending", false),
					openapi.QueryParam("status", "string", "Filter by status", false),
					openapi.QueryParam("profile", "string", "Filter by profile", false),
					openapi.QueryParam("submitted_by", "string", "Filter by token subject", false),
				},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Page of runs", "RunPage"),
					401: openapi.ResponseRef("Unauthorized"),
				},
			},
			Post: &openapi.Operation{
				Summary:     "Submit a payload for enrichment",
				Description: "Archives the file and queues a run. The run is processed asynchronously.",
				Tags:        tags,
				RequestBody: openapi.RequestBodyMultipart(&openapi.Schema{
					Type:     "object",
					Required: []string{"file", "profile"},
					Properties: map[string]*openapi.Schema{
						"file":         {Type: "string", Format: "binary"},
						"profile":      {Type: "string", Enum: []any{"description", "vehicle-metadata"}},
						"content_type": {Type: "string", Description: "Overrides detection"},
					},
				}),
				Responses: map[int]*openapi.Response{
					202: openapi.ResponseJSON("Run queued", "Run"),
					400: openapi.ResponseRef("BadRequest"),
					401: openapi.ResponseRef("Unauthorized"),
					413: openapi.ResponseJSON("File exceeds maximum upload size", "Error"),
				},
			},
		},
		"/runs/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a run",
				Tags:       tags,
				Parameters: []*openapi.Parameter{idParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Run", "Run"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/runs/{id}/result": {
			Get: &openapi.Operation{
				Summary:    "Get a finished run's result",
				Tags:       tags,
				Parameters: []*openapi.Parameter{idParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Run outcome", "RunResult"),
					404: openapi.ResponseRef("NotFound"),
					409: openapi.ResponseRef("Conflict"),
				},
			},
		},
	}
}
