package detection

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

	"go.uber.org/zap"

	"github.com/PabloGalante/scam-harness/internal/domain"
	"github.com/PabloGalante/scam-harness/internal/observability"
)

const (
	detectPath       = "/api/detect-scam"
	sessionPath      = "/api/session/"
	resetSessionPath = "/api/reset-session/"

	apiKeyHeader = "x-api-key"

	// cap on error bodies copied into error messages
	maxErrorBody = 512
)

// Client talks to the remote Detection Service over JSON/HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient creates a Detection Service client for baseURL.
// apiKey is sent as the shared-secret x-api-key header.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse detection base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("detection base url %q: unsupported scheme", baseURL)
	}

	c := &Client{
		baseURL: u.String(),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Detect implements domain.DetectionClient.
func (c *Client) Detect(ctx context.Context, in domain.DetectionRequest) (*domain.DetectionResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode detection request: %w: %w", domain.ErrNotSent, err)
	}

	var out domain.DetectionResponse
	if err := c.do(ctx, http.MethodPost, detectPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession implements domain.RemoteSessions.
func (c *Client) GetSession(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, sessionPath+url.PathEscape(string(id)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetSession implements domain.RemoteSessions.
func (c *Client) ResetSession(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, resetSessionPath+url.PathEscape(string(id)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	log := observability.LoggerFromContext(ctx).With(
		zap.String("method", method),
		zap.String("path", path),
	)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w: %w", domain.ErrNotSent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if reqID := observability.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("detection call failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	log.Debug("detection call done",
		zap.Int("status", resp.StatusCode),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: %w: status %d: %s",
			method, path, domain.ErrNetworkFailure, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: decode response: %w", method, path, domain.ErrNetworkFailure, err)
	}
	return nil
}
