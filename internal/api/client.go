// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client of the back-office REST service.
//
// Every response is wrapped in an envelope carrying a success flag and a
// message. Requests carry the stored bearer token and are throttled by a
// token-bucket limiter.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client defaults.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond and DefaultBurst bound the request rate.
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 10

	// DefaultMaxRetries applies to idempotent requests failing with 5xx.
	DefaultMaxRetries = 2

	retryBaseDelay = 300 * time.Millisecond

	// MaxResponseSize caps the body read from the server.
	MaxResponseSize = 10 * 1024 * 1024
)

// ErrUnsuccessful is wrapped by EnvelopeError.
var ErrUnsuccessful = errors.New("request was not successful")

// Response is the envelope every endpoint returns.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method   string
	Endpoint string
	Code     int
	Body     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP error! status: %d", e.Method, e.Endpoint, e.Code)
}

// Unauthorized reports whether the token was rejected.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// EnvelopeError is returned when the server answers 2xx with success=false.
type EnvelopeError struct {
	Endpoint string
	Message  string
	Detail   string
}

// Error implements the error interface.
func (e *EnvelopeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "API request failed"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Endpoint, msg, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, msg)
}

// Unwrap lets errors.Is match ErrUnsuccessful.
func (e *EnvelopeError) Unwrap() error { return ErrUnsuccessful }

// TokenSource supplies the bearer token. auth.Service implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Observer receives the outcome of each request. status is 0 on transport
// errors.
type Observer func(endpoint string, status int, elapsed time.Duration)

// =============================================================================
// CLIENT
// =============================================================================

// Client calls the back-office API.
type Client struct {
	baseURL    string
	http       *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
	observer   Observer
	maxRetries int
	now        func() time.Time
}

// NewClient creates a client for baseURL. tokens may be nil for
// unauthenticated calls.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/",
		http:       &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		logger:     zap.NewNop(),
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.http.Timeout = d
	}
	return c
}

// WithRateLimit sets the request rate. rps <= 0 disables throttling.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithMaxRetries sets how often idempotent requests are retried.
func (c *Client) WithMaxRetries(n int) *Client {
	if n >= 0 {
		c.maxRetries = n
	}
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// WithObserver registers a request observer.
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// BaseURL returns the API root, with a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + strings.TrimPrefix(endpoint, "/")
}

// do sends one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	retries := 0
	if method == http.MethodGet || method == http.MethodPut || method == http.MethodDelete {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		raw, err := c.send(ctx, method, endpoint, payload)
		if err == nil {
			if len(bytes.TrimSpace(raw)) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("failed to decode %s: %w", endpoint, err)
			}
			return nil
		}
		lastErr = err

		var se *StatusError
		if !errors.As(err, &se) || se.Code < http.StatusInternalServerError {
			return err
		}
		c.logger.Debug("retrying request", zap.String("endpoint", endpoint), zap.Int("attempt", attempt+1))
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		// A missing token is not fatal here; the server answers 401.
		if tok, err := c.tokens.AccessToken(ctx); err == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := c.now()
	resp, err := c.http.Do(req)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.observe(endpoint, 0, elapsed)
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, elapsed)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", endpoint, err)
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Endpoint: endpoint, Code: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (c *Client) observe(endpoint string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(metricName(endpoint), status, elapsed)
	}
}

// metricName strips the query so observations group by path.
func metricName(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// =============================================================================
// GENERIC REQUESTS
// =============================================================================

// Get sends a GET and returns the envelope. The envelope is returned even
// when it reports success=false.
func Get[T any](ctx context.Context, c *Client, endpoint string) (*Response[T], error) {
	var r Response[T]
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Post sends data as JSON.
func Post[T any](ctx context.Context, c *Client, endpoint string, data any) (*Response[T], error) {
	var r Response[T]
	if err := c.do(ctx, http.MethodPost, endpoint, data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Put sends data as JSON.
func Put[T any](ctx context.Context, c *Client, endpoint string, data any) (*Response[T], error) {
	var r Response[T]
	if err := c.do(ctx, http.MethodPut, endpoint, data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete sends a DELETE.
func Delete[T any](ctx context.Context, c *Client, endpoint string) (*Response[T], error) {
	var r Response[T]
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// data unwraps a successful envelope.
func data[T any](endpoint string, r *Response[T]) (T, error) {
	if !r.Success {
		var zero T
		return zero, &EnvelopeError{Endpoint: metricName(endpoint), Message: r.Message, Detail: r.Error}
	}
	return r.Data, nil
}
