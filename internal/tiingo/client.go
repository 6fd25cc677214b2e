package tiingo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/guttosm/tickerpulse/internal/logger"
)

// Config controls client construction. Zero values fall back to the
// documented defaults so a Config{TokenFile: ...} is enough for most callers.
type Config struct {
	TokenFile   string        // path of the file holding the bearer token (required)
	BaseURL     string        // default: https://api.tiingo.com/tiingo/daily
	TestURL     string        // default: https://api.tiingo.com
	Timeout     time.Duration // overall HTTP timeout; default 30s
	MaxParallel int           // fetch worker pool size; default NumCPU
}

const (
	defaultBaseURL = "https://api.tiingo.com/tiingo/daily"
	defaultTestURL = "https://api.tiingo.com"
	defaultTimeout = 30 * time.Second
)

// Client talks to the historical-prices API. The credential is read once at
// construction and immutable afterwards; the client is safe for concurrent use.
type Client struct {
	token        string
	baseURL      string
	testURL      string
	http         *http.Client
	defaultQuery url.Values
	maxParallel  int
}

// Option customizes a Client after config defaults are applied.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests to point
// at an httptest server, or to install a proxy-aware transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBaseURL overrides the prices base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTestURL overrides the health-check base URL.
func WithTestURL(u string) Option {
	return func(c *Client) { c.testURL = strings.TrimRight(u, "/") }
}

// New reads and trims the token from cfg.TokenFile and builds a client.
// Returns a *CredentialError when the file is unreadable or holds no token.
func New(cfg Config, opts ...Option) (*Client, error) {
	raw, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, &CredentialError{Path: cfg.TokenFile, Err: err}
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return nil, &CredentialError{Path: cfg.TokenFile}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TestURL == "" {
		cfg.TestURL = defaultTestURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = runtime.NumCPU()
	}

	c := &Client{
		token:   token,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		testURL: strings.TrimRight(cfg.TestURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(),
		},
		defaultQuery: url.Values{
			"format":       {"csv"},
			"resampleFreq": {"daily"},
		},
		maxParallel: cfg.MaxParallel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newTransport returns an http.Transport tuned for many small concurrent
// requests against a single host.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   50,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// newRequest builds an authenticated GET for the given URL.
func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)
	return req, nil
}

// ConnectionStatus is the outcome of a health-check probe. OK distinguishes
// success; Response holds the parsed JSON body on success and Err the cause
// otherwise. TestConnection never returns a Go error directly.
type ConnectionStatus struct {
	OK       bool
	Response map[string]any
	Err      error
}

// TestConnection issues a lightweight authenticated probe against the
// service's health endpoint and logs a human-readable status line.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	u := fmt.Sprintf("%s/api/test?token=%s", c.testURL, url.QueryEscape(c.token))

	req, err := c.newRequest(ctx, u)
	if err != nil {
		logger.L().Error().Err(err).Msg("connection test failed")
		return ConnectionStatus{Err: &ConnectionError{Err: err}}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Error().Err(err).Msg("connection test failed")
		return ConnectionStatus{Err: &ConnectionError{Err: err}}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cerr := &ConnectionError{Status: resp.StatusCode}
		logger.L().Error().Int("status", resp.StatusCode).Msg("connection test failed")
		return ConnectionStatus{Err: cerr}
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		cerr := &ConnectionError{Err: fmt.Errorf("decode response: %w", err)}
		logger.L().Error().Err(err).Msg("connection test failed")
		return ConnectionStatus{Err: cerr}
	}

	logger.L().Info().Interface("response", body).Msg("connection successful")
	return ConnectionStatus{OK: true, Response: body}
}
