// Package auth obtains bearer tokens for the enrichment API through the
// OAuth2 client-credentials grant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrNotConfigured indicates no client credentials were supplied.
	ErrNotConfigured = errors.New("client credentials not configured")
	// ErrTokenRequest indicates the token endpoint rejected the request.
	ErrTokenRequest = errors.New("token request failed")
)

// TokenSource returns a bearer token for outbound calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Source fetches tokens with the client-credentials grant and reuses each
// token until it expires. Credentials travel in the form body.
type Source struct {
	cc     *clientcredentials.Config
	http   *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// New creates a Source. A nil httpClient uses http.DefaultClient.
func New(cfg *Config, httpClient *http.Client, logger *slog.Logger) *Source {
	var scopes []string
	if cfg.Scope != "" {
		scopes = strings.Fields(cfg.Scope)
	}

	return &Source{
		cc: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		http:   httpClient,
		logger: logger.With("system", "auth"),
	}
}

// Token returns a cached token or requests a new one.
func (s *Source) Token(ctx context.Context) (string, error) {
	if s.cc.ClientID == "" {
		return "", ErrNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid() {
		return s.token.AccessToken, nil
	}

	if s.http != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)
	}

	tok, err := s.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenRequest, err)
	}

	s.token = tok
	s.logger.Info("access token acquired", "token_url", s.cc.TokenURL, "expiry", tok.Expiry)
	return tok.AccessToken, nil
}
