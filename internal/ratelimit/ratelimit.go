package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/skywatch/internal/observability"
)

// EndpointLimiter enforces a minimum delay between requests to the same
// backend endpoint. Endpoints are limited independently.
type EndpointLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewEndpointLimiter creates a limiter that spaces consecutive requests to the
// same endpoint by minDelay, or by the endpoint's override when one is set.
// A non-positive delay disables limiting for that endpoint.
func NewEndpointLimiter(minDelay time.Duration, overrides map[string]time.Duration) *EndpointLimiter {
	return &EndpointLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (l *EndpointLimiter) limiterFor(endpoint string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[endpoint]; ok {
		return lim
	}

	delay := l.minDelay
	if d, ok := l.overrides[endpoint]; ok {
		delay = d
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	lim := rate.NewLimiter(limit, 1)
	l.limiters[endpoint] = lim
	return lim
}

// Wait blocks until a request to endpoint is allowed.
// Returns an error if the context is cancelled while waiting.
func (l *EndpointLimiter) Wait(ctx context.Context, endpoint string) error {
	if err := l.limiterFor(endpoint).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", endpoint, err)
	}
	return nil
}

// Transport is an http.RoundTripper decorator that waits on the endpoint
// limiter before delegating to the wrapped transport.
type Transport struct {
	inner   http.RoundTripper
	limiter *EndpointLimiter
	keyFn   func(*http.Request) string
	metrics *observability.Metrics
}

// NewTransport wraps inner with per-endpoint rate limiting. keyFn maps a
// request to its endpoint name. A nil inner uses http.DefaultTransport.
func NewTransport(inner http.RoundTripper, limiter *EndpointLimiter, keyFn func(*http.Request) string, metrics *observability.Metrics) *Transport {
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &Transport{
		inner:   inner,
		limiter: limiter,
		keyFn:   keyFn,
		metrics: metrics,
	}
}

// RoundTrip waits for the limiter to allow the request, then delegates.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if err := t.limiter.Wait(req.Context(), t.keyFn(req)); err != nil {
		return nil, err
	}
	t.metrics.ObserveRateLimitWait(time.Since(start))
	return t.inner.RoundTrip(req)
}
