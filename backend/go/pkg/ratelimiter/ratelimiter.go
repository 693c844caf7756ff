package ratelimiter

import "context"

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if a request may proceed right now, consuming a permit.
	Allow() bool
	// Wait blocks until a permit is available or ctx is done.
	Wait(ctx context.Context) error
}
