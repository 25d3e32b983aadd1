package ledger

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles gateway calls with one token bucket per endpoint.
// The submit, data, and status endpoints are limited independently so
// status polling cannot starve submissions.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter creates a new rate limiter with the specified rate and burst.
// ratePerSecond is requests per second, burst is the maximum burst size.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(ratePerSecond),
		burst:   burst,
	}
}

// DefaultRateLimiter returns a limiter at 5 requests/second with a burst
// of 10.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// Allow reports whether a call to the endpoint may proceed immediately.
func (r *RateLimiter) Allow(endpoint string) bool {
	return r.bucket(endpoint).Allow()
}

// Wait blocks until a call to the endpoint may proceed or ctx is canceled.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	return r.bucket(endpoint).Wait(ctx)
}

func (r *RateLimiter) bucket(endpoint string) *rate.Limiter {
	r.mu.RLock()
	b, ok := r.buckets[endpoint]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.buckets[endpoint]; ok {
		return b
	}
	b = rate.NewLimiter(r.limit, r.burst)
	r.buckets[endpoint] = b
	return b
}
