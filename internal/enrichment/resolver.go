package enrichment

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

const dataScheme = "data:"

// DefaultExtensions are the file extensions a path reference may carry.
var DefaultExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/=\r\n]+$`)

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// ContentFetcher retrieves payload bytes from an external content store by id.
type ContentFetcher interface {
	Fetch(ctx context.Context, id int64) ([]byte, error)
}

// Resolver normalizes a Reference into raw payload bytes.
type Resolver struct {
	content    ContentFetcher
	extensions []string
}

// NewResolver creates a Resolver. content may be nil, in which case
// ContentID references are unsupported. With no extensions given,
// DefaultExtensions apply.
func NewResolver(content ContentFetcher, extensions ...string) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	return &Resolver{
		content:    content,
		extensions: normalized,
	}
}

// Resolve returns the bytes ref denotes. It never returns partial data:
// either the full payload or an error.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch ref := ref.(type) {
	case RawBytes:
		data = ref
	case ContentID:
		data, err = r.fetch(ctx, int64(ref))
	case Base64String:
		data, err = r.resolveBase64(string(ref))
	case DataURI:
		data, err = decodeDataURI(string(ref))
	case FilePath:
		data, err = r.readFile(string(ref))
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedReference, ref)
	}

	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedReference)
	}
	return data, nil
}

func (r *Resolver) fetch(ctx context.Context, id int64) ([]byte, error) {
	if r.content == nil {
		return nil, fmt.Errorf("%w: no content store for id %d", ErrUnsupportedReference, id)
	}

	data, err := r.content.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch content %d: %w", id, err)
	}
	return data, nil
}

func (r *Resolver) resolveBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, dataScheme) {
		return decodeDataURI(s)
	}

	if looksLikeBase64(s) {
		if data, err := decodeBase64(s); err == nil {
			return data, nil
		}
	}

	return r.readFile(s)
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || !slices.Contains(r.extensions, ext) {
		return nil, fmt.Errorf("%w: not base64 and no recognized file extension", ErrUnsupportedReference)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnsupportedReference, path, err)
	}
	return data, nil
}

func decodeDataURI(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, dataScheme)
	if !ok {
		return nil, fmt.Errorf("%w: missing data scheme", ErrUnsupportedReference)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data uri is not base64 encoded", ErrUnsupportedReference)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode data uri: %w", ErrUnsupportedReference, err)
	}
	return data, nil
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(lineBreaks.Replace(s))
}

func looksLikeBase64(s string) bool {
	if len(s) < 16 || len(s)%4 != 0 {
		return false
	}
	return base64Pattern.MatchString(s)
}
