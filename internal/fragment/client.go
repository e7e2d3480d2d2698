package fragment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Common errors.
var (
	// ErrNotFound means the remote confirmed no fragment exists at the
	// requested index. Terminal, never retried.
	ErrNotFound = errors.New("fragment: no such fragment")

	// ErrInvalid means the remote answered 200 but the payload failed
	// validation. Terminal, never retried.
	ErrInvalid = errors.New("fragment: invalid fragment response")

	// ErrRejected covers client-side rejections other than 404.
	// Terminal, never retried.
	ErrRejected = errors.New("fragment: request rejected")

	// ErrServer covers 5xx responses. Retryable.
	ErrServer = errors.New("fragment: server error")

	// ErrExhausted means the retry budget ran out on transient failures.
	ErrExhausted = errors.New("fragment: retries exhausted")
)

// Fragment is one indexed unit of puzzle text. Immutable once constructed;
// instances are only created from validated remote responses.
type Fragment struct {
	ID    int    `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Options configures the fragment client.
type Options struct {
	// Timeout for individual requests.
	// Default: 500ms
	Timeout time.Duration

	// Attempts is the maximum number of retry attempts on transient
	// failures. Default: 3
	Attempts int

	// Backoff is the initial backoff duration.
	// Default: 100ms
	Backoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 2s
	MaxBackoff time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults for a sub-second
// solve budget.
func DefaultOptions() Options {
	return Options{
		Timeout:             500 * time.Millisecond,
		Attempts:            3,
		Backoff:             100 * time.Millisecond,
		MaxBackoff:          2 * time.Second,
		MaxIdleConnsPerHost: 100,
	}
}

// Client fetches puzzle fragments over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	opts    Options
}

// NewClient creates a fragment client for baseURL, which must include the
// fragment endpoint path (e.g. "http://puzzle-server:8080/fragment").
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts = DefaultOptions()
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		baseURL: baseURL,
		opts:    opts,
	}
}

// URL builds the request URL for a fragment index.
func (c *Client) URL(index int) string {
	return c.baseURL + "?id=" + strconv.Itoa(index)
}

// ValidateBaseURL reports whether s is an absolute http(s) URL. It is the
// only configuration check the client itself performs.
func ValidateBaseURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL %q: missing host", s)
	}
	return nil
}

// Get fetches the fragment at index.
//
// Transient failures (timeouts, connection errors, 5xx) are retried with
// exponential backoff and jitter; when the retry budget runs out the
// returned error wraps ErrExhausted. Terminal outcomes (ErrNotFound,
// ErrInvalid, ErrRejected) return immediately and must not be retried by
// the caller either.
func (c *Client) Get(ctx context.Context, index int) (*Fragment, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrRejected, index)
	}

	var lastErr error

	for attempt := 0; attempt <= c.opts.Attempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		frag, err := c.get(ctx, index)
		if err == nil {
			return frag, nil
		}
		if Terminal(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fragment %d: %w after %d attempts: %v",
		index, ErrExhausted, c.opts.Attempts+1, lastErr)
}

// get performs a single attempt.
func (c *Client) get(ctx context.Context, index int) (*Fragment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(index), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRejected, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection errors are transient.
		return nil, fmt.Errorf("fragment %d: %w", index, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d %s", ErrServer, resp.StatusCode, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrRejected, resp.StatusCode)
	}

	var frag Fragment
	if err := json.NewDecoder(resp.Body).Decode(&frag); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}
	if frag.Index != index {
		return nil, fmt.Errorf("%w: requested index %d, got %d", ErrInvalid, index, frag.Index)
	}
	if frag.Text == "" {
		return nil, fmt.Errorf("%w: empty text at index %d", ErrInvalid, index)
	}

	return &frag, nil
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.Backoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.MaxBackoff {
		backoff = c.opts.MaxBackoff
	}

	// Add jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

// Terminal reports whether err is a terminal outcome for its index:
// the fragment is confirmed absent, the payload is unusable, or the remote
// rejected the request outright. Terminal errors are never retried and the
// index is never fetched again within a session.
func Terminal(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrRejected)
}
