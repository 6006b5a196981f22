// Package grants implements the external-data acquisition path: a single
// best-effort fetch from the upstream grants API under a hard deadline, with
// a static fallback dataset when the live path fails.
package grants

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout is the hard deadline for one live fetch
	DefaultTimeout = 15 * time.Second
	// maxResponseBytes caps how much of an upstream body is read
	maxResponseBytes = 8 << 20
)

// Client issues requests against the upstream grants API. It performs no
// retries; retry policy, if any, belongs to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new upstream client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search issues a single outbound request for grant listings. The request is
// bounded by the client timeout and by ctx; cancellation releases the
// connection promptly and reads as an ordinary failure to the caller.
func (c *Client) Search(ctx context.Context, query, agency string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}

	q := u.Query()
	if query != "" {
		q.Set("keyword", query)
	}
	if agency != "" {
		q.Set("agency", agency)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return body, nil
}
