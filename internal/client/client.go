// Package client is the authenticated accessor for the chat service's
// read-only API. Failures propagate to the caller; there is no retry layer.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// basicAuthPassword is the fixed placeholder the API expects alongside the
// access token.
const basicAuthPassword = "X"

// ErrNotFound marks a 404 from the API. Callers that expect absence (deleted
// uploads) test for it with errors.Is; everyone else propagates it as a
// normal failure.
var ErrNotFound = errors.New("not found")

// Config holds remote client configuration.
type Config struct {
	// Subdomain of the chat account, e.g. "acme".
	Subdomain string
	// Token authenticates as basic-auth username.
	Token string
	// APIDomain is the service's base domain, e.g. "campfirenow.com".
	APIDomain string
	// BaseURL, when set, replaces the https://{subdomain}.{api domain}/
	// derivation. Used against local or relocated servers.
	BaseURL string
	// UserAgent sent with every request.
	UserAgent string
	// Timeout per request; zero uses a 60s default.
	Timeout time.Duration
}

// Client fetches parsed JSON documents and raw payloads from the chat API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a remote client for one subdomain.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	c := resty.New()
	c.SetBasicAuth(cfg.Token, basicAuthPassword)
	c.SetHeader("User-Agent", cfg.UserAgent)
	c.SetTimeout(timeout)

	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.%s/", cfg.Subdomain, cfg.APIDomain)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &Client{
		http:    c,
		baseURL: base,
	}
}

// BaseURL returns the account's API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchJSON performs a GET against a path relative to the account root and
// decodes the JSON body into out. A non-2xx status or an unparseable body is
// an error.
func (c *Client) FetchJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.http.R().SetContext(ctx).Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("fetch %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("fetch %s: HTTP %d", path, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("fetch %s: decode body: %w", path, err)
	}
	return nil
}

// FetchBytes performs an authenticated GET against an absolute URL and
// returns the raw body. Used for upload payloads, whose URLs the API hands
// out fully qualified.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrNotFound)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
