package enrichment

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/tidwall/gjson"
)

// Action names understood by the context-enrichment service.
const (
	ActionImageDescription       = "image-description"
	ActionTextMetadataGeneration = "text-metadata-generation"
)

// Profile names.
const (
	ProfileDescription     = "description"
	ProfileVehicleMetadata = "vehicle-metadata"
)

// Field maps one canonical output name to a gjson path inside the ready
// result sub-document.
type Field struct {
	Name string
	Path string
}

// Result is the flattened outcome of a job: every field of the profile is
// present, empty when the provider did not supply it.
type Result map[string]string

// Profile binds an action to its request options, readiness rule, and the
// fields extracted from its result.
type Profile struct {
	Name       string
	Action     string
	UploadType string
	SubmitType string
	Options    map[string]any
	Readiness

	// Container is the path that must exist for the result to count as
	// populated. Extraction still runs when it is absent.
	Container string
	Fields    []Field
}

// Request builds the processing request for a payload stored under key.
func (p *Profile) Request(key string) ProcessingRequest {
	return ProcessingRequest{
		ResourceKeys: []string{key},
		Actions:      []string{p.Action},
		ContentType:  p.SubmitType,
		Options:      maps.Clone(p.Options),
	}
}

// Empty returns a Result with every field set to "".
func (p *Profile) Empty() Result {
	out := make(Result, len(p.Fields))
	for _, f := range p.Fields {
		out[f.Name] = ""
	}
	return out
}

// Extract flattens raw into a Result. It never fails: missing or non-scalar
// nodes yield empty strings. The boolean reports whether Container was present.
func (p *Profile) Extract(raw json.RawMessage) (Result, bool) {
	out := p.Empty()
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return out, false
	}

	doc := gjson.ParseBytes(raw)
	for _, f := range p.Fields {
		out[f.Name] = scalar(doc.Get(f.Path))
	}

	found := p.Container == "" || doc.Get(p.Container).Exists()
	return out, found
}

func scalar(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String()
	}
	return ""
}

// DescriptionProfile describes an image in at most maxWords words.
func DescriptionProfile(maxWords int) *Profile {
	return &Profile{
		Name:       ProfileDescription,
		Action:     ActionImageDescription,
		UploadType: "image/jpeg",
		SubmitType: "application/json",
		Options: map[string]any{
			"maxWordCount": maxWords,
		},
		Readiness: Readiness{
			ResultKey:   "imageDescription",
			RequireLeaf: true,
			StatusMatch: MatchExact,
		},
		Container: "result",
		Fields: []Field{
			{Name: "description", Path: "result"},
		},
	}
}

const vehiclePrompt = "Extract a JSON object named car_metadata from the PDF. " +
	"Return exactly these keys: manufacturer, model, color, year, car_part, damage_type, damage_severity, confidence_score. " +
	"If a field is not present, use null. " +
	"Use only information present in the PDF, do not guess."

// VehicleMetadataProfile extracts vehicle damage metadata from a PDF.
func VehicleMetadataProfile() *Profile {
	return &Profile{
		Name:       ProfileVehicleMetadata,
		Action:     ActionTextMetadataGeneration,
		UploadType: "application/pdf",
		SubmitType: "application/pdf",
		Options: map[string]any{
			"prompt":   vehiclePrompt,
			"useOcr":   true,
			"ocrMode":  "auto",
			"language": "en",
			"kSimilarMetadata": []any{
				map[string]any{
					"car_metadata": map[string]any{
						"manufacturer":     "Pontiac",
						"model":            "Firebird",
						"color":            "red",
						"year":             "1992",
						"car_part":         "bumper",
						"damage_type":      "minimal",
						"damage_severity":  "low",
						"confidence_score": "10",
					},
				},
			},
		},
		Readiness: Readiness{
			ResultKey:   "textMetadata",
			StatusMatch: MatchFold,
		},
		Container: "result.car_metadata",
		Fields: []Field{
			{Name: "manufacturer", Path: "result.car_metadata.manufacturer"},
			{Name: "model", Path: "result.car_metadata.model"},
			{Name: "color", Path: "result.car_metadata.color"},
			{Name: "year", Path: "result.car_metadata.year"},
			{Name: "part", Path: "result.car_metadata.car_part"},
			{Name: "damageType", Path: "result.car_metadata.damage_type"},
			{Name: "damageSeverity", Path: "result.car_metadata.damage_severity"},
		},
	}
}

// LookupProfile returns the named built-in profile.
func LookupProfile(name string) (*Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProfileDescription:
		return DescriptionProfile(200), nil
	case ProfileVehicleMetadata:
		return VehicleMetadataProfile(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}
