// Package ratelimiter bounds outbound request rates to stay inside API
// provider quotas.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket over golang.org/x/time/rate.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing rps requests per second with the given
// burst capacity.
func New(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = rps
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// TryAcquire takes a token without blocking, reporting whether one was
// available.
func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}
