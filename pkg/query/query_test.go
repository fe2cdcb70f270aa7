package query_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/enricher/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "runs", "r").
		Project("id", "id").
		Project("profile", "profile").
		Project("status", "status").
		Project("filename", "filename").
		Project("created_at", "createdAt")
}

func ptr(s string) *string { return &s }

func TestProjection(t *testing.T) {
	p := testProjection()

	if got := p.Table(); got != "public.runs r" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.Columns(); got != "r.id, r.profile, r.status, r.filename, r.created_at" {
		t.Errorf("Columns() = %q", got)
	}
	if col, ok := p.Column("createdAt"); !ok || col != "r.created_at" {
		t.Errorf("Column(createdAt) = %q, %v", col, ok)
	}
	if _, ok := p.Column("missing"); ok {
		t.Error("Column(missing) reported mapped")
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		in   string
		want []query.SortField
	}{
		{"", nil},
		{"profile", []query.SortField{{Field: "profile"}}},
		{"profile, -createdAt", []query.SortField{{Field: "profile"}, {Field: "createdAt", Descending: true}}},
		{",,-status,", []query.SortField{{Field: "status", Descending: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := query.ParseSortFields(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	defaultSort := query.SortField{Field: "createdAt", Descending: true}

	tests := []struct {
		name     string
		build    func(b *query.Builder) (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "page default sort",
			build: func(b *query.Builder) (string, []any) {
				return b.BuildPage(2, 10)
			},
			wantSQL: "SELECT r.id, r.profile, r.status, r.filename, r.created_at FROM public.runs r ORDER BY r.created_at DESC LIMIT 10 OFFSET 10",
		},
		{
			name: "page filtered and sorted",
			build: func(b *query.Builder) (string, []any) {
				return b.
					WhereEquals("status", ptr("completed")).
					WhereSearch(ptr("car"), "filename", "profile").
					OrderBy(query.ParseSortFields("profile,-missing")).
					BuildPage(1, 5)
			},
			wantSQL:  "SELECT r.id, r.profile, r.status, r.filename, r.created_at FROM public.runs r WHERE r.status = $1 AND (r.filename ILIKE $2 OR r.profile ILIKE $3) ORDER BY r.profile ASC LIMIT 5 OFFSET 0",
			wantArgs: []any{"completed", "%car%", "%car%"},
		},
		{
			name: "count skips empty filters",
			build: func(b *query.Builder) (string, []any) {
				return b.
					WhereEquals("status", (*string)(nil)).
					WhereEquals("profile", "").
					WhereEquals("unknown", "x").
					WhereSearch(ptr("")).
					BuildCount()
			},
			wantSQL: "SELECT COUNT(*) FROM public.runs r",
		},
		{
			name: "single",
			build: func(b *query.Builder) (string, []any) {
				return b.BuildSingle("id", "abc")
			},
			wantSQL:  "SELECT r.id, r.profile, r.status, r.filename, r.created_at FROM public.runs r WHERE r.id = $1",
			wantArgs: []any{"abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build(query.NewBuilder(testProjection(), defaultSort))
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got  %s\n want %s", sql, tt.wantSQL)
			}
			if !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args: got %v, want %v", args, tt.wantArgs)
			}
		})
	}
}
