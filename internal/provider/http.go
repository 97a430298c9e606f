package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one HTTP exchange with a provider.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the tool to APIs that require it.
	DefaultUserAgent = "Pheonix-Phone-Tool"

	// maxResponseSize bounds the bytes read from one API response.
	maxResponseSize = 4 << 20
)

// HTTPClient wraps an http.Client with a User-Agent, a request rate limit
// and JSON decoding. It is safe for concurrent use.
type HTTPClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithRateLimit limits requests to perSecond. A non-positive value removes
// the limit.
func WithRateLimit(perSecond float64) HTTPOption {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithAgent sets the User-Agent header.
func WithAgent(ua string) HTTPOption {
	return func(c *HTTPClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewHTTPClient creates an HTTPClient. A nil client gets one with
// DefaultTimeout.
func NewHTTPClient(client *http.Client, opts ...HTTPOption) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	c := &HTTPClient{
		client:    client,
		limiter:   rate.NewLimiter(rate.Inf, 0),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches url and decodes a 200 response into v.
// Any other status is returned as *HTTPError.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, header http.Header, v any) error {
	body, err := c.Get(ctx, url, header)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// Get fetches url and returns the body of a 200 response.
func (c *HTTPClient) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, waitErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
