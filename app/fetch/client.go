package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	MinTimeout     = 30 * time.Second
	MaxTimeout     = 120 * time.Second
	DefaultTimeout = 60 * time.Second

	DefaultLocale = "pl"

	// Proxies report the URL they ended up on after redirects in this header.
	finalURLHeader = "X-Final-Url"

	maxBodySize = 16 << 20
)

type Config struct {
	Endpoint  string
	APIKey    string
	UserAgent string
	// RateLimit is the number of requests per second; zero disables limiting.
	RateLimit  float64
	HTTPClient *http.Client
}

type Options struct {
	Timeout time.Duration
	Render  bool
	Locale  string
	Headers map[string]string
}

type RawDocument struct {
	Body       []byte
	StatusCode int
	Elapsed    time.Duration
	FinalURL   string
}

// Client fetches pages through a rendering proxy. One Fetch call is one attempt.
type Client struct {
	endpoint   *url.URL
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxBody    int64
}

// NewClient validates the proxy endpoint and key and returns a client ready
// to fetch. A nil HTTPClient gets a default one. A positive RateLimit spaces
// requests across every caller sharing the client.
func NewClient(cfg Config) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid proxy endpoint %q", cfg.Endpoint)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("proxy API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		limiter:    limiter,
		maxBody:    maxBodySize,
	}, nil
}

func DefaultOptions() Options {
	return Options{
		Timeout: DefaultTimeout,
		Render:  true,
		Locale:  DefaultLocale,
	}
}

// EffectiveTimeout is the per-attempt timeout Fetch applies for these options.
func (o Options) EffectiveTimeout() time.Duration {
	return clampTimeout(o.Timeout)
}

func clampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Fetch makes one attempt to retrieve locator through the proxy. It waits on
// the rate limiter first, then bounds the request by the clamped timeout.
// Failures come back as ErrTimeout, ErrEmptyResponse, *HTTPError or *NetworkError,
// except a cancelled ctx which is returned as is.
func (c *Client) Fetch(ctx context.Context, locator string, opts Options) (*RawDocument, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, ErrTimeout
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, clampTimeout(opts.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.requestURL(locator, opts), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if opts.Locale != "" {
		req.Header.Set("Accept-Language", opts.Locale)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(timeoutCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classifyTransportError(timeoutCtx, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, &NetworkError{Err: fmt.Errorf("response body exceeds %d bytes", c.maxBody)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}

	finalURL := resp.Header.Get(finalURLHeader)
	if finalURL == "" {
		finalURL = locator
	}

	return &RawDocument{
		Body:       body,
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(started),
		FinalURL:   finalURL,
	}, nil
}

func (c *Client) requestURL(locator string, opts Options) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("url", locator)
	if opts.Render {
		q.Set("render", "true")
	}
	if opts.Locale != "" {
		q.Set("country_code", opts.Locale)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &NetworkError{Err: err}
}
