package runs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/enricher/internal/enrichment"
)

var (
	ErrNotFound     = errors.New("run not found")
	ErrDuplicate    = errors.New("run already exists")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrNotComplete  = errors.New("run has not finished")
	ErrInvalidID    = errors.New("invalid run id")
	ErrStore        = errors.New("run store unavailable")
)

// MapHTTPStatus maps run and enrichment errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotComplete):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	default:
		return enrichment.MapHTTPStatus(err)
	}
}
