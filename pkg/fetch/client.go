// Package fetch is a small HTTP client for JSON and binary GET requests with
// bounded retries and exponential backoff.
//
// Transient failures (network errors, 408, 429, 5xx, unreadable or malformed
// bodies) are retried according to a [Policy]. Other 4xx responses fail
// immediately with a [*StatusError]. When the attempts run out the caller
// receives an [*ExhaustedError] that names the URL and keeps the last cause.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNetwork classifies transport-level failures.
var ErrNetwork = errors.New("network error")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// ExhaustedError is returned once every attempt for URL failed with a transient error.
type ExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Client performs GET requests under a retry [Policy].
type Client struct {
	http    *http.Client
	policy  Policy
	headers map[string]string
}

// NewHTTPClient returns an *http.Client tuned for many sequential requests
// against the same hosts. HTTP/2 is not forced: very large JSON documents
// have been seen to break HTTP/2 streams.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   false,
	}
	return &http.Client{Transport: transport}
}

// New creates a Client. Default headers are sent with every request; a nil
// httpClient selects [NewHTTPClient].
func New(httpClient *http.Client, policy Policy, headers map[string]string) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		http:    httpClient,
		policy:  policy,
		headers: headers,
	}
}

// GetJSON fetches url and decodes the JSON body into v. Extra headers
// override the client's defaults for the same key. A body that does not
// decode is treated as transient and retried.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	return c.do(ctx, url, headers, func(body []byte) error {
		if err := json.Unmarshal(body, v); err != nil {
			return Retryable(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}

// GetBytes fetches url and returns the raw body.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var data []byte
	err := c.do(ctx, url, headers, func(body []byte) error {
		data = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string, handle func([]byte) error) error {
	err := Retry(ctx, c.policy, func(int) error {
		body, err := c.get(ctx, url, headers)
		if err != nil {
			return err
		}
		return handle(body)
	})

	var ae *attemptsError
	if errors.As(err, &ae) {
		return &ExhaustedError{URL: url, Attempts: ae.attempts, Err: ae.err}
	}
	return err
}

// get performs one attempt.
func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The caller gave up; retrying cannot help.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	return body, nil
}

func checkStatus(url string, resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
	err := &StatusError{URL: url, StatusCode: code, Body: string(body)}

	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return Retryable(err)
	default:
		return err
	}
}
