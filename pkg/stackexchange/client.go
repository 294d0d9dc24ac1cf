package stackexchange

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

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/config"
	errs "github.com/9ao9ai9ar/stack-exchange-backup/pkg/errors"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/metrics"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/ratelimit"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/retry"
)

const (
	// APIRoot is the versioned root of every method
	APIRoot = config.DefaultBaseURL
	// DefaultRequestKey is the request key registered for this application
	DefaultRequestKey = config.DefaultRequestKey
	// MaxRequestsPerSecond is the server's per-IP limit
	MaxRequestsPerSecond = ratelimit.DefaultRequestsPerSecond
	// MaxConcurrentRequests is the default number of slots in the rate limiter
	MaxConcurrentRequests = ratelimit.DefaultCapacity
)

// Config identifies a client. Equal configs share a client in a Registry.
type Config struct {
	RequestKey        string
	AccessToken       string
	RequestsPerSecond int
	MaxConcurrent     int
	BaseURL           string
}

// DefaultClientConfig returns the config of an anonymous client using the
// application's request key at the server's rate limit
func DefaultClientConfig() Config {
	return Config{
		RequestKey:        DefaultRequestKey,
		RequestsPerSecond: MaxRequestsPerSecond,
		MaxConcurrent:     MaxConcurrentRequests,
		BaseURL:           APIRoot,
	}
}

func (c Config) normalize() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = MaxRequestsPerSecond
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = MaxConcurrentRequests
	}
	if c.BaseURL == "" {
		c.BaseURL = APIRoot
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Validate rejects rates above the server limit and unusable base URLs
func (c Config) Validate() error {
	if c.RequestsPerSecond > MaxRequestsPerSecond {
		return &errs.ValidationError{
			Field:   "requests_per_second",
			Message: fmt.Sprintf("%d exceeds the server limit of %d", c.RequestsPerSecond, MaxRequestsPerSecond),
		}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &errs.ValidationError{Field: "base_url", Message: "not an absolute URL: " + c.BaseURL, Err: err}
	}
	return nil
}

// Client talks to the Stack Exchange API. Every request passes through the
// same pipeline: backoff check, auth, rate limit slot, dispatch, status
// check, strict parse, backoff record and quota check.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    ratelimit.Limiter
	backoff    *BackoffTracker
	quota      *QuotaGuard
	retry      *retry.Config
	metrics    *metrics.Metrics
	logger     logger.Logger
	notify     func(Notice)
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request and throttle metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRetry sets the retry policy for transport failures
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithNotifier receives a Notice before every blocking wait
func WithNotifier(fn func(Notice)) Option {
	return func(c *Client) { c.notify = fn }
}

// WithSleep replaces the sleep used by the backoff and quota waits
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		c.backoff.sleep = fn
		c.quota.sleep = fn
	}
}

// WithClock replaces the clock used by the backoff tracker and quota guard
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.backoff.now = now
		c.quota.now = now
	}
}

// WithQuotaWait changes how long an exhausted quota suspends the client
func WithQuotaWait(d time.Duration) Option {
	return func(c *Client) { c.quota.Wait = d }
}

// NewClient creates a client with its own rate limiter, backoff and quota
// state. Close releases the limiter. A rate above the server limit is capped;
// use Registry.Get to have such configs rejected instead.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.normalize()
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		backoff:    NewBackoffTracker(nil),
		quota:      NewQuotaGuard(nil),
		retry: &retry.Config{
			MaxAttempts: 3,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     retry.DefaultRetryIf,
		},
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.NewNopLogger()
	}
	if cfg.RequestsPerSecond > MaxRequestsPerSecond {
		c.logger.WarnWithFields("request rate above the server limit, capping it", map[string]interface{}{
			"requests_per_second": cfg.RequestsPerSecond,
			"limit":               MaxRequestsPerSecond,
		})
		cfg.RequestsPerSecond = MaxRequestsPerSecond
		c.cfg = cfg
	}
	c.backoff.logger = c.logger
	c.quota.logger = c.logger
	rc := retry.Config{MaxAttempts: 1}
	if c.retry != nil {
		rc = *c.retry
	}
	if rc.Logger == nil {
		rc.Logger = c.logger
	}
	c.retry = &rc

	limiter := ratelimit.NewSlotLimiter(cfg.RequestsPerSecond, cfg.MaxConcurrent, c.logger)
	limiter.OnWait = func(d time.Duration) {
		c.emit(Notice{
			Kind:    NoticeRateLimit,
			Wait:    d,
			Message: fmt.Sprintf("Rate limiting has kicked in at %d requests per second.", cfg.RequestsPerSecond),
		})
	}
	c.limiter = limiter
	c.backoff.OnWait = c.emit
	c.quota.OnWait = c.emit
	return c
}

func (c *Client) emit(n Notice) {
	c.metrics.ObserveThrottle(string(n.Kind), n.Wait)
	if c.notify != nil {
		c.notify(n)
	}
}

// Config returns the normalized config of the client
func (c *Client) Config() Config {
	return c.cfg
}

// Backoff exposes the per-method backoff state
func (c *Client) Backoff() *BackoffTracker {
	return c.backoff
}

// Close stops the rate limiter refill goroutine
func (c *Client) Close() {
	c.limiter.Close()
}

// request describes one call through the pipeline
type request struct {
	method   string
	endpoint string // method name used for backoff bookkeeping
	path     string
	params   Params
	override url.Values
}

// do runs r through the pipeline and decodes the response into an Envelope
func do[T any](ctx context.Context, c *Client, r request) (*Envelope[T], error) {
	if err := prepare(r.params); err != nil {
		return nil, err
	}

	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, r)
	}, c.retry)
	if err != nil {
		return nil, err
	}

	env, err := ParseEnvelope[T](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.endpoint, err)
	}

	if env.Backoff != nil {
		c.backoff.Record(r.endpoint, *env.Backoff)
	}
	if env.QuotaRemaining != nil {
		c.metrics.SetQuotaRemaining(*env.QuotaRemaining)
	}
	if err := c.quota.Check(ctx, env.QuotaRemaining); err != nil {
		return nil, err
	}
	return env, nil
}

// send performs one attempt: backoff, quota suspension, auth, slot,
// dispatch, status check
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	if err := c.backoff.Check(ctx, r.endpoint); err != nil {
		return nil, err
	}
	if err := c.quota.Hold(ctx); err != nil {
		return nil, err
	}

	r.params.base().AttachAuth(Auth{Key: c.cfg.RequestKey, AccessToken: c.cfg.AccessToken})
	values, err := r.params.Serialize()
	if err != nil {
		return nil, err
	}
	for k, v := range r.override {
		values[k] = v
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, r.method, c.cfg.BaseURL+r.path, values)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnWithFields("API request failed before a response", map[string]interface{}{
			"endpoint": r.endpoint,
			"error":    err.Error(),
		})
		return nil, &errs.NetworkError{Op: r.method + " " + r.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	logger.LogRequest(c.logger, r.method, r.endpoint, resp.StatusCode, duration)
	c.metrics.ObserveRequest(r.endpoint, resp.StatusCode, duration)
	if err != nil {
		return nil, &errs.NetworkError{Op: "read " + r.endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(req, resp, body)
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, values url.Values) (*http.Request, error) {
	if method == http.MethodGet {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, &errs.ValidationError{Field: "url", Message: rawURL, Err: err}
		}
		u.RawQuery = values.Encode()
		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, &errs.ValidationError{Field: "url", Message: rawURL, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	payload := make(map[string]string, len(values))
	for k := range values {
		payload[k] = values.Get(k)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &errs.ValidationError{Field: "body", Message: "cannot encode parameters", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(data))
	if err != nil {
		return nil, &errs.ValidationError{Field: "url", Message: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func newHTTPError(req *http.Request, resp *http.Response, body []byte) *errs.HTTPError {
	httpErr := &errs.HTTPError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		URL:        redact(req.URL),
		Headers:    make(map[string]string),
	}
	for _, h := range errs.DiagnosticHeaders {
		if v := resp.Header.Get(h); v != "" {
			httpErr.Headers[strings.ToLower(h)] = v
		}
	}
	// the body is the error triple when the server produced it
	_ = json.Unmarshal(body, &httpErr.Payload)
	return httpErr
}

// redact drops credentials from a URL before it ends up in an error
func redact(u *url.URL) string {
	clean := *u
	q := clean.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
	}
	clean.RawQuery = q.Encode()
	return clean.String()
}
