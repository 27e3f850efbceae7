// Package backend talks to the emitters API: the last-seen emitter list
// and the credential list.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/config"
	"github.com/febros/localesdash/internal/emitter"
)

const maxBodyBytes = 32 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Client fetches emitter and user lists over HTTP.
type Client struct {
	base         string
	emittersPath string
	usersPath    string
	http         *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used
// as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a client for cfg. Requests carry no deadline unless
// cfg.Timeout is set.
func New(cfg config.BackendConfig, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		base:         strings.TrimRight(cfg.URL, "/"),
		emittersPath: cfg.EmittersPath,
		usersPath:    cfg.UsersPath,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Emitters fetches the last-seen emitter list. Records come back
// normalized. A body that is valid JSON but not an array yields an empty
// list.
func (c *Client) Emitters(ctx context.Context) ([]emitter.Record, error) {
	records, err := getList[emitter.Record](ctx, c, c.emittersPath)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i] = emitter.Normalize(records[i])
	}
	return records, nil
}

// Users fetches the credential list.
func (c *Client) Users(ctx context.Context) ([]auth.Credential, error) {
	return getList[auth.Credential](ctx, c, c.usersPath)
}

// getList fetches path and decodes each array element on its own. Elements
// that fail to decode are skipped so one bad entry cannot hide the rest.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	url := c.base + path
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decoding %s: invalid JSON", url)
	}
	if len(body) == 0 || body[0] != '[' {
		c.logger.Warn("backend returned a non-array body", "url", url)
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		if bytes.Equal(elem, []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			c.logger.Warn("skipping malformed list element", "url", url, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("backend request",
		"url", url,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: http.MethodGet, URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return bytes.TrimSpace(body), nil
}
