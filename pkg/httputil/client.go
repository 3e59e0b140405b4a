package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors returned by [Client].
var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")

	// ErrTooLarge is returned when a body exceeds the client's size limit.
	ErrTooLarge = errors.New("response too large")
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	defaultDelay    = time.Second
	defaultMaxBytes = 32 << 20
)

// NewHTTPClient returns an *http.Client with the default timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// WithMaxBytes caps the accepted response body size.
func WithMaxBytes(n int64) ClientOption { return func(c *Client) { c.maxBytes = n } }

// Client performs GET requests with shared headers and retry logic.
// It is safe for concurrent use.
type Client struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration
	maxBytes int64
}

// NewClient creates a Client. Headers are applied to every request; pass nil
// for none.
func NewClient(headers map[string]string, opts ...ClientOption) *Client {
	c := &Client{
		http:     NewHTTPClient(),
		headers:  headers,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBytes fetches url and returns the whole body, retrying transient
// failures.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(io.LimitReader(body, c.maxBytes+1))
		if err != nil {
			return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		if int64(len(data)) > c.maxBytes {
			return fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxBytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests, code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
