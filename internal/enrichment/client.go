package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// UploadTarget is a single-use write location and the opaque key the
// service assigns to the payload written there.
type UploadTarget struct {
	WriteURL    string `json:"presignedUrl"`
	ResourceKey string `json:"objectKey"`
}

// ProcessingRequest describes one processing job. Options are merged into
// the top-level request document and are never interpreted here.
type ProcessingRequest struct {
	ResourceKeys []string
	Actions      []string
	ContentType  string
	Options      map[string]any
}

// Client issues requests against the context-enrichment API.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Client rooted at baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("system", "enrichment-client"),
	}
}

// Provision requests an upload target for a payload of contentType.
func (c *Client) Provision(ctx context.Context, token, contentType string) (UploadTarget, error) {
	var target UploadTarget

	endpoint := c.baseURL + "/files/upload/presigned-url?" + url.Values{
		"contentType": {contentType},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return target, fmt.Errorf("%w: build request: %w", ErrProvisioning, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req, ErrProvisioning, statusIn(http.StatusOK))
	if err != nil {
		return target, err
	}

	if err := json.Unmarshal(body, &target); err != nil {
		return target, fmt.Errorf("%w: decode response: %w", ErrProvisioning, err)
	}
	if target.WriteURL == "" || target.ResourceKey == "" {
		return target, fmt.Errorf("%w: response missing presignedUrl or objectKey", ErrProvisioning)
	}

	c.logger.Debug("upload target provisioned", "resource_key", target.ResourceKey)
	return target, nil
}

// Transport writes data to target in a single request. Content length is
// taken from data, never from the reference it was resolved from.
func (c *Client) Transport(ctx context.Context, target UploadTarget, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.WriteURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)

	if _, err := c.do(req, ErrTransport, status2xx); err != nil {
		return err
	}

	c.logger.Debug("payload transported", "resource_key", target.ResourceKey, "size", len(data))
	return nil
}

// Submit posts a processing request and returns the job id.
func (c *Client) Submit(ctx context.Context, token string, pr ProcessingRequest) (string, error) {
	doc := make(map[string]any, len(pr.Options)+3)
	maps.Copy(doc, pr.Options)
	doc["objectKeys"] = pr.ResourceKeys
	doc["actions"] = pr.Actions
	doc["contentType"] = pr.ContentType

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrSubmission, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/content/process", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ErrSubmission, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, ErrSubmission, statusIn(http.StatusOK))
	if err != nil {
		return "", err
	}

	var resp struct {
		ProcessingID string `json:"processingId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrSubmission, err)
	}
	if resp.ProcessingID == "" {
		return "", fmt.Errorf("%w: response missing processingId", ErrSubmission)
	}

	c.logger.Debug("job submitted", "job_id", resp.ProcessingID, "actions", pr.Actions)
	return resp.ProcessingID, nil
}

// Results issues one status request for jobID and returns the raw document.
func (c *Client) Results(ctx context.Context, token, jobID string) ([]byte, error) {
	endpoint := c.baseURL + "/content/process/" + url.PathEscape(jobID) + "/results"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrPoll, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	return c.do(req, ErrPoll, statusIn(http.StatusOK, http.StatusAccepted))
}

func (c *Client) do(req *http.Request, kind error, accept func(int) bool) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", kind, err)
	}

	if !accept(resp.StatusCode) {
		return nil, &StatusError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return body, nil
}

func statusIn(codes ...int) func(int) bool {
	return func(code int) bool {
		return slices.Contains(codes, code)
	}
}

func status2xx(code int) bool {
	return code >= 200 && code < 300
}
