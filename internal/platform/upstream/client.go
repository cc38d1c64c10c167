// Package upstream is the HTTP client the storefront services use to call
// each other. Replies are expected in the httpx envelope format.
package upstream

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

	"storefront/internal/httpx"

	"golang.org/x/time/rate"
)

// StatusError is a non-2xx reply from an upstream service.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Status)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Status, e.Message)
}

// Options tune a Client. Zero values pick the defaults.
type Options struct {
	UserAgent  string
	RPS        float64
	MaxRetries int
	Timeout    time.Duration
	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(baseURL string, opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "storefront"
	}
	if opts.RPS <= 0 {
		opts.RPS = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent:  opts.UserAgent,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), 1),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

// Get fetches path and decodes the envelope into data and meta.
func (c *Client) Get(ctx context.Context, path string, query url.Values, data, meta any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, data, meta)
}

// Delete issues a DELETE for path. Any data in the reply is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil, nil)
}

// Do sends a request and decodes the success envelope. GET and DELETE are
// retried on transport errors, 429 and 5xx; other methods are sent once.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, data, meta any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	retries := c.maxRetries
	if method != http.MethodGet && method != http.MethodDelete {
		retries = 0
	}

	var lastErr error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.send(ctx, method, u, payload, data, meta)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d retries: %w", retries, lastErr)
}

func (c *Client) send(ctx context.Context, method, u string, payload []byte, data, meta any) (bool, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := httpx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := httpx.DecodeErrorEnvelope(resp.Body)
		statusErr := &StatusError{Status: resp.StatusCode, Code: body.Code, Message: body.Message}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, statusErr
	}
	if resp.StatusCode == http.StatusNoContent || (data == nil && meta == nil) {
		return false, nil
	}
	if err := httpx.DecodeEnvelope(resp.Body, data, meta); err != nil {
		return false, fmt.Errorf("decode %s %s: %w", method, u, err)
	}
	return false, nil
}
