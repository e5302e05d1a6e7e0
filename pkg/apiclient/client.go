// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

// Package apiclient is the HTTP client used by the CLI and the scan
// pipeline to talk to remote services. Transient failures (HTTP 429,
// 5xx, network errors) are retried with exponential backoff; other
// client errors fail immediately.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout = 30 * time.Second
	// ExtraAttempts is how many times a transient failure is retried
	// after the first attempt.
	ExtraAttempts = 2

	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
)

// Validatable lets response types reject structurally invalid payloads
// after a successful JSON decode.
type Validatable interface {
	Validate() error
}

// StatusError is returned for non-2xx responses. Message carries the
// response body when there is one, or a plain "HTTP <status>" fallback.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Client wraps http.Client with retry and JSON decoding
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	headers    map[string]string
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header to every request, e.g. an API key header
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// New creates a Client for the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        128,
				MaxConnsPerHost:     64,
				IdleConnTimeout:     1 * time.Minute,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON performs a GET and decodes the response body into out
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decode(data, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into out.
// Pass nil out to discard the response body.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, path, payload, "application/json")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(data, out)
}

// GetBytes performs a GET and returns the raw response body
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// Post performs a POST with a pre-built body, e.g. a multipart upload,
// and returns the raw response body
func (c *Client) Post(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, contentType)
}

func decode(data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if v, ok := out.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("unexpected response shape: %w", err)
		}
	}
	return nil
}

// do executes the request with retry. 429 and 5xx responses and network
// errors are retried; any other non-2xx status is permanent.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	url := c.baseURL + path

	var result []byte
	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		rsp, err := c.httpClient.Do(req)
		if err != nil {
			// Network errors are worth another try
			return err
		}
		defer rsp.Body.Close()

		data, err := io.ReadAll(rsp.Body)
		if err != nil {
			return err
		}

		if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
			statusErr := &StatusError{
				StatusCode: rsp.StatusCode,
				Message:    errorText(rsp.StatusCode, data),
			}
			if retryable(rsp.StatusCode) {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		result = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.MaxInterval = maxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, ExtraAttempts), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func errorText(statusCode int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}
	return text
}
