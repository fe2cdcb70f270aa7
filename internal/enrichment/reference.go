package enrichment

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Reference identifies a payload in one of several representations.
// The set of variants is closed: only types in this package implement it,
// and Resolver.Resolve switches over every one of them.
type Reference interface {
	reference()
}

// RawBytes is a payload already held in memory.
type RawBytes []byte

// ContentID is a numeric identifier in the process engine's content store.
type ContentID int64

// Base64String is base64 text that may carry a data URI prefix or, failing
// decoding, name a file on disk.
type Base64String string

// DataURI is a "data:<mime>;base64,<payload>" string.
type DataURI string

// FilePath names a local file.
type FilePath string

func (RawBytes) reference()     {}
func (ContentID) reference()    {}
func (Base64String) reference() {}
func (DataURI) reference()      {}
func (FilePath) reference()     {}

// ReferenceFrom classifies a dynamically typed value, as carried by workflow
// variables or decoded JSON, into a Reference.
func ReferenceFrom(v any) (Reference, error) {
	switch t := v.(type) {
	case Reference:
		return t, nil
	case []byte:
		return RawBytes(t), nil
	case int, int8, int16, int32, int64:
		return ContentID(reflect.ValueOf(t).Int()), nil
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(t).Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: content id %d out of range", ErrUnsupportedReference, u)
		}
		return ContentID(int64(u)), nil
	case float32:
		return contentIDFromFloat(float64(t))
	case float64:
		return contentIDFromFloat(t)
	case json.Number:
		id, err := t.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: content id %q: %w", ErrUnsupportedReference, t, err)
		}
		return ContentID(id), nil
	case string:
		if strings.HasPrefix(t, dataScheme) {
			return DataURI(t), nil
		}
		return Base64String(t), nil
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrUnsupportedReference)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedReference, v)
}

func contentIDFromFloat(f float64) (Reference, error) {
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt64 {
		return nil, fmt.Errorf("%w: content id %v is not a non-negative integer", ErrUnsupportedReference, f)
	}
	return ContentID(int64(f)), nil
}
