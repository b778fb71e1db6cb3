package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gdcmeta/internal/config"
	"gdcmeta/internal/logging"
)

const (
	defaultJitter          = 2 * time.Second
	defaultMaxConnsPerHost = 30
	defaultKeepAlive       = 15 * time.Second
	maxErrorBody           = 512
)

// DefaultSchedule is the base delay before each retry.
var DefaultSchedule = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

var (
	sharedOnce      sync.Once
	sharedTransport *http.Transport
)

// SharedTransport returns the process-wide keep-alive transport.
func SharedTransport() *http.Transport {
	sharedOnce.Do(func() {
		sharedTransport = NewTransport(defaultMaxConnsPerHost, defaultKeepAlive)
	})
	return sharedTransport
}

// NewTransport builds a pooled transport capped at maxConns per host.
func NewTransport(maxConns int, keepAlive time.Duration) *http.Transport {
	base, _ := http.DefaultTransport.(*http.Transport)
	var t *http.Transport
	if base != nil {
		t = base.Clone()
	} else {
		t = &http.Transport{}
	}
	t.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: keepAlive}).DialContext
	t.MaxConnsPerHost = maxConns
	t.MaxIdleConnsPerHost = maxConns
	t.IdleConnTimeout = keepAlive
	return t
}

// Request describes one logical HTTP call. Body, when non-nil, is JSON encoded.
type Request struct {
	Method   string
	URL      string
	Body     any
	Username string
	Password string
}

// Client performs JSON requests with retry on throttling and network errors.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	schedule   []time.Duration
	jitter     time.Duration
	jitterFn   func(max time.Duration) time.Duration
	sleeper    func(time.Duration)
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSchedule overrides the retry delay schedule. The number of retries equals
// its length; an empty schedule disables retries.
func WithSchedule(schedule []time.Duration) Option {
	return func(c *Client) {
		c.schedule = append([]time.Duration(nil), schedule...)
	}
}

// WithJitter sets the exclusive upper bound of the random delay added to each retry.
func WithJitter(max time.Duration) Option {
	return func(c *Client) {
		if max >= 0 {
			c.jitter = max
		}
	}
}

// WithJitterSource overrides how jitter is drawn (useful for tests).
func WithJitterSource(fn func(max time.Duration) time.Duration) Option {
	return func(c *Client) {
		c.jitterFn = fn
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithRequestsPerSecond paces every attempt. Zero or negative disables pacing.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger attaches a logger for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a client on the shared transport.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Transport: SharedTransport()},
		schedule:   append([]time.Duration(nil), DefaultSchedule...),
		jitter:     defaultJitter,
		jitterFn:   randomJitter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = logging.NewComponentLogger(c.logger, "fetch")
	return c
}

// NewFromConfig constructs a client using the [fetch] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg == nil {
		return New(append([]Option{WithLogger(logger)}, opts...)...)
	}
	transport := NewTransport(cfg.Fetch.MaxConnsPerHost, cfg.KeepAlive())
	base := []Option{
		WithHTTPClient(&http.Client{Transport: transport, Timeout: cfg.RequestTimeout()}),
		WithSchedule(cfg.Backoff()),
		WithJitter(cfg.Jitter()),
		WithRequestsPerSecond(cfg.Fetch.RequestsPerSecond),
		WithLogger(logger),
	}
	return New(append(base, opts...)...)
}

// GetJSON issues a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url}, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body}, out)
}

// PutJSON issues a PUT with a JSON body and decodes the response into out.
func (c *Client) PutJSON(ctx context.Context, url string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, URL: url, Body: body}, out)
}

// Do performs req, retrying on HTTP 429 and transport failures, and decodes a
// 2xx JSON body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if ctx == nil {
		return errors.New("fetch: nil context")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	req.Method = method

	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("fetch %s %s: encode body: %w", method, req.URL, err)
		}
		payload = encoded
	}

	maxRetries := len(c.schedule)
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		body, err := c.once(ctx, req, payload)
		if err == nil {
			if out == nil || len(bytes.TrimSpace(body)) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("fetch %s %s: decode response: %w", method, req.URL, err)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempt >= maxRetries {
			return err
		}

		delay := c.retryDelay(attempt)
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "request failed, retrying", "fetch_retry",
			logging.String(logging.FieldURL, req.URL),
			logging.String("method", method),
			logging.Int("attempt", attempt+1),
			logging.Int("max_retries", maxRetries),
			logging.Duration("delay", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remote is throttling or unreachable; lower requests_per_second or chunk_size"),
			logging.String(logging.FieldImpact, "request delayed"),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) once(ctx context.Context, req Request, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: new request: %w", req.Method, req.URL, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Username != "" || req.Password != "" {
		httpReq.SetBasicAuth(req.Username, req.Password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			Method: req.Method,
			URL:    req.URL,
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}
	return body, nil
}

// retryDelay returns the wait before retry number n (0-based).
func (c *Client) retryDelay(n int) time.Duration {
	if len(c.schedule) == 0 {
		return 0
	}
	idx := n
	if idx >= len(c.schedule) {
		idx = len(c.schedule) - 1
	}
	delay := c.schedule[idx]
	if c.jitter > 0 && c.jitterFn != nil {
		delay += c.jitterFn(c.jitter)
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
