// Package enrichment drives the remote content-enrichment API.
// It resolves payload references to bytes, uploads them through a
// single-use upload target, submits a processing job, polls the job to a
// terminal state, and flattens the provider result into named fields.
package enrichment

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for enrichment operations.
var (
	ErrUnsupportedReference = errors.New("unsupported payload reference")
	ErrProvisioning         = errors.New("upload target provisioning failed")
	ErrTransport            = errors.New("payload transport failed")
	ErrSubmission           = errors.New("job submission failed")
	ErrPoll                 = errors.New("job poll failed")
	ErrMissingToken         = errors.New("missing access token")
	ErrUnknownProfile       = errors.New("unknown enrichment profile")
)

// StatusError reports a remote exchange that returned an unexpected status.
// Kind is one of the sentinel errors above and is what errors.Is matches.
type StatusError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// MapHTTPStatus maps enrichment errors to HTTP status codes.
// Remote failures surface as 502 since the fault lies with the upstream service.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedReference),
		errors.Is(err, ErrUnknownProfile):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrProvisioning),
		errors.Is(err, ErrTransport),
		errors.Is(err, ErrSubmission),
		errors.Is(err, ErrPoll):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
