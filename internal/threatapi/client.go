// Package threatapi is the HTTP client for the upstream threat intelligence REST API.
// Every call forwards the caller's session cookies, or the service API key for
// background jobs, and normalises the heterogeneous response shapes the
// upstream produces into domain records.
package threatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/threatlens/dashboard-api/internal/config"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 10 << 20

	// APIKeyHeader carries the service key on upstream requests
	APIKeyHeader = "x-api-key"
)

// Client talks to the upstream API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	serviceKey string
	userAgent  string
	timeout    time.Duration
	logger     *zap.Logger
}

// HealthStatus represents the result of an upstream health probe
type HealthStatus struct {
	Status  string        `json:"status"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an upstream client from configuration
func NewClient(cfg *config.UpstreamConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{},
		serviceKey: cfg.ServiceAPIKey,
		userAgent:  cfg.UserAgent,
		timeout:    timeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Info("Upstream API client initialized",
		zap.String("base_url", c.baseURL),
		zap.Duration("timeout", c.timeout),
		zap.Bool("service_key_present", c.serviceKey != ""),
	)
	return c, nil
}

// BaseURL returns the upstream root URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

type credentialsKey struct{}

type credentials struct {
	cookies []*http.Cookie
	service bool
}

// WithCookies returns a context whose upstream calls forward the given session cookies
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, credentialsKey{}, credentials{cookies: cookies})
}

// AsService returns a context whose upstream calls authenticate with the service API key
func AsService(ctx context.Context) context.Context {
	return context.WithValue(ctx, credentialsKey{}, credentials{service: true})
}

func credentialsFrom(ctx context.Context) credentials {
	creds, _ := ctx.Value(credentialsKey{}).(credentials)
	return creds
}

// response is a fully read upstream reply
type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

// do performs one request. Non-2xx replies are returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (*response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	creds := credentialsFrom(ctx)
	for _, cookie := range creds.cookies {
		req.AddCookie(cookie)
	}
	if creds.service && c.serviceKey != "" {
		req.Header.Set(APIKeyHeader, c.serviceKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("Upstream request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newError(method, path, resp.StatusCode, raw)
		c.logger.Warn("Upstream returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	return &response{status: resp.StatusCode, body: raw, cookies: resp.Cookies()}, nil
}

// HealthCheck probes the upstream /health endpoint
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	status := &HealthStatus{Status: "healthy", Latency: time.Since(start) / time.Millisecond}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

func itemPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
