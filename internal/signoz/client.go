package signoz

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signoz-mcp/internal/constants"
	"signoz-mcp/internal/models"

	"golang.org/x/time/rate"
)

// Client owns the authenticated connection to a SigNoz instance. It is safe
// for concurrent use across tool invocations; the configuration it carries
// is never mutated after construction.
type Client struct {
	cfg     models.Config
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient validates the configuration and builds the dispatch client.
// The base URL must parse with an http or https scheme and a host.
func NewClient(cfg models.Config) (*Client, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if trimmed == "" {
		return nil, errors.New("SigNoz host must be provided")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid SigNoz host %q: %w", cfg.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("SigNoz host %q must use http or https", cfg.BaseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("SigNoz host %q is missing a host", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if !cfg.SSLVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	limit := rate.Limit(cfg.RequestRateLimit)
	if cfg.RequestRateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RequestRateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:     cfg,
		baseURL: trimmed,
		http: &http.Client{
			Timeout:   timeout,
			Transport: WrapTransportWithDebug(transport, cfg.Debug),
		},
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// BaseURL returns the normalized instance URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues an authenticated GET against the given API path.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post marshals payload as JSON and issues an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, Errorf(KindValidation, "failed to encode request payload: %v", err)
	}
	return c.do(ctx, http.MethodPost, path, body)
}

// QueryRange posts a composite query payload to the query_range endpoint.
func (c *Client) QueryRange(ctx context.Context, payload RangePayload) ([]byte, error) {
	return c.Post(ctx, constants.EndpointQueryRange, payload)
}

// TestConnection probes the known health endpoints in order and returns the
// first one that answers 200. When every probe fails, a rejected API key is
// reported as AuthError so callers can tell a bad key from an unreachable
// host; anything else reads as a transport failure.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var probeErr error
	for _, endpoint := range constants.HealthEndpoints {
		if err := ctx.Err(); err != nil {
			return "", Errorf(KindTransport, "connection test canceled: %v", err)
		}
		_, err := c.Get(ctx, endpoint)
		if err == nil {
			return endpoint, nil
		}
		// An auth rejection is more telling than any later probe miss.
		if !IsKind(probeErr, KindAuth) {
			probeErr = err
		}
	}
	kind := KindTransport
	if IsKind(probeErr, KindAuth) {
		kind = KindAuth
	}
	return "", Errorf(kind,
		"failed to reach SigNoz at %s via any health endpoint: %v", c.baseURL, probeErr)
}

// do performs one authenticated request. All operations here are read-only
// queries, so a transient transport failure is retried exactly once; HTTP
// error statuses are classified and never retried.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, Errorf(KindTransport, "rate limiter wait failed: %v", err)
	}

	data, err := c.attempt(ctx, method, path, body)
	if err != nil && IsKind(err, KindTransport) && ctx.Err() == nil {
		data, err = c.attempt(ctx, method, path, body)
	}
	return data, err
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, Errorf(KindValidation, "failed to build request: %v", err)
	}
	req.Header.Set(constants.HeaderContentType, constants.HeaderContentTypeJSON)
	req.Header.Set(constants.HeaderAccept, constants.HeaderContentTypeJSON)
	req.Header.Set(constants.HeaderUserAgent, constants.UserAgentSignozMCP)
	if c.cfg.APIKey != "" {
		req.Header.Set(constants.HeaderSignozAPIKey, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Errorf(KindTransport, "request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseSize+1))
	if err != nil {
		return nil, Errorf(KindTransport, "failed to read response from %s: %v", path, err)
	}
	if len(data) > constants.MaxResponseSize {
		return nil, Errorf(KindUpstream,
			"response from %s exceeds %d bytes", path, constants.MaxResponseSize)
	}

	if kind := classifyStatus(resp.StatusCode); kind != "" {
		return nil, Errorf(kind, "%s %s returned %s: %s",
			method, path, resp.Status, truncate(string(data), 500))
	}
	return data, nil
}

// classifyStatus maps an HTTP status to an error kind, or "" for success.
func classifyStatus(status int) string {
	switch {
	case status < 400:
		return ""
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindUpstream
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... [truncated]"
}
