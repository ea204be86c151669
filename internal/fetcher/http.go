package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/voc-cli/internal/resilience"
)

// DefaultHostRate is the request rate for hosts without a configured limit.
const DefaultHostRate = 20.0

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// MaxRetries is the number of retries after the first request.
	MaxRetries int
	// RateLimits maps a host to requests per second.
	RateLimits map[string]float64
	// Client overrides the underlying HTTP client.
	Client *http.Client
	// Retry overrides backoff timing. Attempts is taken from MaxRetries.
	Retry *resilience.Policy
}

// AdaptiveLimiter is a per-host rate limiter that slows down after a 429
// and recovers on success, staying between a quarter and twice the
// configured rate.
type AdaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	base    rate.Limit
	current rate.Limit
}

// NewAdaptiveLimiter returns a limiter starting at r events per second.
func NewAdaptiveLimiter(r rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(r, burst),
		base:    r,
		current: r,
	}
}

// Wait blocks until a request may proceed.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

func (a *AdaptiveLimiter) set(r rate.Limit) {
	a.current = max(min(r, a.base*2), a.base/4)
	a.limiter.SetLimit(a.current)
}

// OnSuccess raises the rate by 20%.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.set(a.current * 1.2)
}

// OnRateLimit halves the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.set(a.current / 2)
	zap.L().Warn("fetcher: host rate limited, slowing down",
		zap.Float64("rate", float64(a.current)),
	)
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// HTTPFetcher implements Fetcher with retries and per-host rate limits.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
	policy resilience.Policy

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "voc-cli/1.0"
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	policy := resilience.Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: 0.25}
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	policy.Attempts = opts.MaxRetries + 1
	policy.Retryable = resilience.IsTransient

	return &HTTPFetcher{
		client:   client,
		opts:     opts,
		policy:   policy,
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

func (f *HTTPFetcher) limiterFor(host string) *AdaptiveLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[host]; ok {
		return l
	}
	r := DefaultHostRate
	if v, ok := f.opts.RateLimits[host]; ok && v > 0 {
		r = v
	}
	l := NewAdaptiveLimiter(rate.Limit(r), max(1, int(r)))
	f.limiters[host] = l
	return l
}

// Download fetches rawURL and returns the body of a 200 response.
// Network errors, 429 and 5xx responses are retried.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	lim := f.limiterFor(strings.ToLower(u.Host))

	policy := f.policy
	policy.OnRetry = func(attempt int, err error) {
		zap.L().Warn("fetcher: download failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	resp, err := resilience.RetryValue(ctx, policy, func(ctx context.Context) (*http.Response, error) {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: create request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, resilience.Transient(eris.Wrap(err, "fetcher: request"), 0)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lim.OnRateLimit()
		}
		if resilience.IsTransientStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			return nil, resilience.Transient(&StatusError{URL: rawURL, StatusCode: resp.StatusCode}, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		// Returned as is so callers can errors.As a *StatusError.
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	lim.OnSuccess()
	return resp.Body, nil
}
