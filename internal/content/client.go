// Package content fetches raw payloads from the process engine's content store.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

var (
	// ErrFetch indicates the content store returned an unexpected status.
	ErrFetch = errors.New("content fetch failed")
	// ErrNotAcceptable indicates every known endpoint shape answered 406.
	ErrNotAcceptable = errors.New("content fetch failed with 406 on all known paths")
)

// Client reads content by id. Two endpoint shapes exist across process
// engine versions; a 406 from one is taken to mean the wrong shape.
type Client struct {
	http     *http.Client
	base     string
	username string
	password string
	logger   *slog.Logger
}

// New creates a content Client. A nil httpClient gets one bounded by cfg's timeout.
func New(cfg *Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TimeoutDuration()}
	}
	return &Client{
		http:     httpClient,
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger.With("system", "content"),
	}
}

// Fetch returns the raw bytes of content id. Each endpoint shape is tried
// with "Accept: */*" and then, on 406, without an Accept header. A second
// 406 moves to the next shape. Any other non-200 status is fatal.
func (c *Client) Fetch(ctx context.Context, id int64) ([]byte, error) {
	candidates := []string{
		fmt.Sprintf("%s/enterprise/content/%d/raw", c.base, id),
		fmt.Sprintf("%s/app/rest/content/%d/raw", c.base, id),
	}

	for _, endpoint := range candidates {
		for _, accept := range []string{"*/*", ""} {
			data, status, err := c.get(ctx, endpoint, accept)
			if err != nil {
				return nil, err
			}
			if status == http.StatusOK {
				c.logger.Debug("content fetched", "id", id, "endpoint", endpoint, "size", len(data))
				return data, nil
			}
			if status != http.StatusNotAcceptable {
				return nil, fmt.Errorf("%w: %d - %s", ErrFetch, status, data)
			}
			c.logger.Debug("content endpoint not acceptable", "endpoint", endpoint, "accept", accept)
		}
	}

	return nil, ErrNotAcceptable
}

func (c *Client) get(ctx context.Context, endpoint, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.SetBasicAuth(c.username, c.password)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}

	return body, resp.StatusCode, nil
}
