package sites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Outcome is the answer of one site about one identifier.
type Outcome int

const (
	// OutcomeExists means the account exists.
	OutcomeExists Outcome = iota

	// OutcomeMissing means the account does not exist.
	OutcomeMissing

	// OutcomeInvalid means the site would not accept the identifier.
	OutcomeInvalid

	// OutcomeAmbiguous means the response matched no rule or the request
	// failed.
	OutcomeAmbiguous

	// OutcomeRateLimited means the site or the local limiter refused.
	OutcomeRateLimited
)

// String returns a lowercase name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeExists:
		return "exists"
	case OutcomeMissing:
		return "missing"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Definite reports whether the outcome is a trustworthy yes or no.
func (o Outcome) Definite() bool {
	return o == OutcomeExists || o == OutcomeMissing
}

// Result is the outcome of one site check.
type Result struct {
	Site    string
	URL     string
	Outcome Outcome
	Detail  string
}

const (
	// DefaultConcurrency is the number of sites probed at once.
	DefaultConcurrency = 8

	// DefaultRate is the number of requests per second across all sites.
	DefaultRate = 10

	// DefaultMaxBodySize bounds the bytes read from one response.
	DefaultMaxBodySize = 1 << 20

	// DefaultUserAgent is sent unless a site overrides it.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// Checker probes sites over HTTP.
type Checker struct {
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	maxBodySize int64
	userAgent   string
	logger      *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithConcurrency sets the number of in-flight probes.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRate sets the shared request rate in requests per second.
// A non-positive value disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Checker) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker using client for requests.
// A nil client gets a default client with a 10 second timeout.
func NewChecker(client *http.Client, opts ...Option) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Checker{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRate), 1),
		concurrency: DefaultConcurrency,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Check probes every site for input and returns one Result per site in
// the same order. A failing site never stops the others.
func (c *Checker) Check(ctx context.Context, sites []Site, input string) []Result {
	results := make([]Result, len(sites))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, site := range sites {
		g.Go(func() error {
			results[i] = c.CheckSite(ctx, site, input)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Tasks never return errors

	return results
}

// CheckSite probes a single site.
func (c *Checker) CheckSite(ctx context.Context, site Site, input string) Result {
	res := Result{Site: site.Name, URL: site.DisplayURL(input)}

	if !site.ValidInput(input) {
		res.Outcome = OutcomeInvalid
		res.Detail = "input does not match platform rules"
		return res
	}

	if err := c.limiter.Wait(ctx); err != nil {
		res.Outcome = OutcomeRateLimited
		res.Detail = err.Error()
		return res
	}

	status, finalURL, body, err := c.fetch(ctx, site, input)
	if err != nil {
		c.logger.Debug("site probe failed", "site", site.Name, "error", err)
		res.Outcome = OutcomeAmbiguous
		res.Detail = err.Error()
		return res
	}

	res.Outcome, res.Detail = interpret(site, status, finalURL, body)
	return res
}

// fetch sends the probe request and reads a bounded body.
func (c *Checker) fetch(ctx context.Context, site Site, input string) (int, string, string, error) {
	var reqBody io.Reader
	if site.Body != "" {
		reqBody = strings.NewReader(expandBody(site.Body, headerValue(site.Headers, "Content-Type"), input))
	}

	req, err := http.NewRequestWithContext(ctx, site.Method, site.ProbeURL(input), reqBody)
	if err != nil {
		return 0, "", "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range site.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, "", "", fmt.Errorf("failed to read response: %w", err)
	}

	finalURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return resp.StatusCode, finalURL, string(data), nil
}

// expandBody substitutes placeholders in a request body. {input} is
// escaped for the body's content type: JSON string escaping for JSON
// bodies, form encoding for form bodies, and nothing otherwise.
func expandBody(tmpl, contentType, input string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}
	escaped := input
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		escaped = jsonEscape(input)
	case mediaType == "application/x-www-form-urlencoded":
		escaped = url.QueryEscape(input)
	}
	return strings.NewReplacer(
		"{input}", escaped,
		"{raw}", input,
		"{md5}", md5Hex(input),
	).Replace(tmpl)
}

// headerValue looks up a header by case-insensitive name.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// jsonEscape returns s encoded as the contents of a JSON string literal.
func jsonEscape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(b[1 : len(b)-1])
}

// interpret maps a response to an outcome according to the site's check.
func interpret(site Site, status int, finalURL, body string) (Outcome, string) {
	if status == http.StatusTooManyRequests {
		return OutcomeRateLimited, "HTTP 429"
	}

	switch site.Check {
	case CheckStatusCode:
		switch {
		case slices.Contains(site.ExistsStatus, status):
			return OutcomeExists, ""
		case slices.Contains(site.MissingStatus, status):
			return OutcomeMissing, ""
		}

	case CheckMessage:
		if status >= 500 {
			break
		}
		if site.ErrorMessage != "" && strings.Contains(body, site.ErrorMessage) {
			return OutcomeMissing, ""
		}
		if site.ExistsMessage != "" {
			if strings.Contains(body, site.ExistsMessage) {
				return OutcomeExists, ""
			}
			break
		}
		if status >= 200 && status < 300 {
			return OutcomeExists, ""
		}

	case CheckResponseURL:
		if strings.HasPrefix(finalURL, site.ErrorURL) {
			return OutcomeMissing, ""
		}
		if status >= 200 && status < 300 {
			return OutcomeExists, ""
		}
	}

	return OutcomeAmbiguous, fmt.Sprintf("unexpected HTTP %d", status)
}
