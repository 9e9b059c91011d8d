// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the process-wide HTTP client shared by the
// search provider and the page fetcher: connection pooling, per-class rate
// limits, a global connection cap, bounded retries and typed failures.
package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// Class selects the rate limit and retry policy applied to a request.
type Class int

const (
	ClassFetch Class = iota
	ClassSearch
)

func (c Class) String() string {
	if c == ClassSearch {
		return "search"
	}
	return "fetch"
}

// Client defaults.
const (
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) citations-engine"
	DefaultMaxConns      = 20
	DefaultMaxIdleConns  = 10
	DefaultMaxBodyBytes  = 5 << 20
	DefaultSearchTimeout = 10 * time.Second
	DefaultFetchTimeout  = 20 * time.Second
	DefaultSearchRetries = 3
	DefaultFetchRetries  = 2
	DefaultRatePerMinute = 60
	DefaultSearchBurst   = 3
	DefaultFetchBurst    = 5
)

// DeadlineMargin is kept free between a per-call timeout and the caller's
// deadline so a call always ends before the request budget does.
var DeadlineMargin = 50 * time.Millisecond

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	Class  Class

	// Idempotent requests may be retried. GETs always are.
	Idempotent bool
}

// Response is a fully read, size-bounded response.
type Response struct {
	Status      int
	Header      http.Header
	ContentType string
	FinalURL    string
	Body        []byte
	Truncated   bool
}

type classPolicy struct {
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
}

// Client is safe for concurrent use. Construct one per process.
type Client struct {
	http      *http.Client
	conns     *semaphore.Weighted
	policies  map[Class]*classPolicy
	userAgent string
	maxBody   int64
	baseDelay time.Duration
}

// NewClient builds a client from cfg, filling unset fields with defaults.
func NewClient(cfg types.HTTPConfig) *Client {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	idle := cfg.MaxIdleConns
	if idle <= 0 {
		idle = DefaultMaxIdleConns
	}
	if idle > maxConns {
		idle = maxConns
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          idle,
		MaxIdleConnsPerHost:   idle,
		MaxConnsPerHost:       maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				return nil
			},
		},
		conns: semaphore.NewWeighted(int64(maxConns)),
		policies: map[Class]*classPolicy{
			ClassSearch: newPolicy(cfg.Search, DefaultSearchTimeout, DefaultSearchRetries, DefaultSearchBurst),
			ClassFetch:  newPolicy(cfg.Fetch, DefaultFetchTimeout, DefaultFetchRetries, DefaultFetchBurst),
		},
		userAgent: ua,
		maxBody:   maxBody,
		baseDelay: cfg.RetryBaseDelay,
	}
}

func newPolicy(cfg types.ClassConfig, timeout time.Duration, retries, burst int) *classPolicy {
	p := &classPolicy{timeout: cfg.Timeout, maxRetries: retries}
	if p.timeout <= 0 {
		p.timeout = timeout
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		p.maxRetries = *cfg.MaxRetries
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = DefaultRatePerMinute
	}
	if cfg.Burst > 0 {
		burst = cfg.Burst
	}
	p.limiter = rate.NewLimiter(rate.Limit(perMinute/60), burst)
	return p
}

// Timeout returns the configured per-call timeout for class.
func (c *Client) Timeout(class Class) time.Duration {
	return c.policies[class].timeout
}

// Fetch GETs rawURL under the fetch class. A zero timeout uses the class default.
func (c *Client) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	return c.Do(ctx, Request{
		Method:     http.MethodGet,
		URL:        rawURL,
		Class:      ClassFetch,
		Idempotent: true,
	}, timeout)
}

// Do executes req with the class's rate limit and retry policy. Every
// failure is a *FetchError. The per-attempt timeout is the smaller of
// timeout and the time left on ctx minus DeadlineMargin.
func (c *Client) Do(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	policy := c.policies[req.Class]
	if timeout <= 0 {
		timeout = policy.timeout
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	retryable := req.Idempotent || req.Method == http.MethodGet || req.Method == http.MethodHead
	maxRetries := policy.maxRetries
	if !retryable {
		maxRetries = 0
	}

	log := zerolog.Ctx(ctx)
	var lastErr *FetchError
	for attempt := 0; ; attempt++ {
		resp, fe := c.attempt(ctx, req, policy, timeout)
		if fe == nil {
			return resp, nil
		}
		lastErr = fe

		if attempt >= maxRetries || !fe.Temporary() || ctx.Err() != nil {
			return nil, lastErr
		}

		wait := c.backoff(attempt, fe)
		if !fitsDeadline(ctx, wait) {
			log.Debug().Str("url", req.URL).Dur("wait", wait).Msg("retry would exceed deadline")
			return nil, lastErr
		}
		log.Debug().
			Str("url", req.URL).
			Str("class", req.Class.String()).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("wait", wait).
			Str("kind", fe.Kind.String()).
			Msg("retrying request")

		select {
		case <-ctx.Done():
			return nil, &FetchError{Kind: KindTimeout, URL: req.URL, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

func (c *Client) attempt(ctx context.Context, req Request, policy *classPolicy, timeout time.Duration) (*Response, *FetchError) {
	callTimeout, ok := ClampTimeout(ctx, timeout)
	if !ok {
		return nil, &FetchError{Kind: KindTimeout, URL: req.URL, Err: context.DeadlineExceeded}
	}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := policy.limiter.Wait(callCtx); err != nil {
		return nil, &FetchError{Kind: KindTimeout, URL: req.URL, Err: fmt.Errorf("waiting for %s rate limit: %w", req.Class, err)}
	}
	if err := c.conns.Acquire(callCtx, 1); err != nil {
		return nil, &FetchError{Kind: KindTimeout, URL: req.URL, Err: fmt.Errorf("waiting for connection slot: %w", err)}
	}
	defer c.conns.Release(1)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, &FetchError{Kind: KindUnreachable, URL: req.URL, Err: fmt.Errorf("building request: %w", err)}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(callCtx, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{
			Kind:       KindRateLimited,
			Status:     resp.StatusCode,
			URL:        req.URL,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{Kind: KindHTTPError, Status: resp.StatusCode, URL: req.URL}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classifyTransportError(callCtx, req.URL, fmt.Errorf("reading body: %w", err))
	}
	truncated := int64(len(data)) > c.maxBody
	if truncated {
		data = data[:c.maxBody]
	}

	return &Response{
		Status:      resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Body:        data,
		Truncated:   truncated,
	}, nil
}

func classifyTransportError(ctx context.Context, rawURL string, err error) *FetchError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	return &FetchError{Kind: KindUnreachable, URL: rawURL, Err: err}
}

// ClampTimeout bounds timeout by the time remaining on ctx minus
// DeadlineMargin. It reports false when no time is left.
func ClampTimeout(ctx context.Context, timeout time.Duration) (time.Duration, bool) {
	if err := ctx.Err(); err != nil {
		return 0, false
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout, timeout > 0
	}
	remaining := time.Until(deadline) - DeadlineMargin
	if remaining <= 0 {
		return 0, false
	}
	if timeout <= 0 || remaining < timeout {
		return remaining, true
	}
	return timeout, true
}

func fitsDeadline(ctx context.Context, wait time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline)-DeadlineMargin > wait
}
