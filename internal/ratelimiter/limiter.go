package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// DeliveryLimiter is a token bucket in front of the downstream responses
// endpoint. Burst is set equal to the rate so no extra burst capacity is
// allowed beyond the configured per-second maximum.
type DeliveryLimiter struct {
	limiter *rate.Limiter
}

// New creates a DeliveryLimiter with ratePerSec tokens per second.
// A non-positive rate disables limiting.
func New(ratePerSec int) *DeliveryLimiter {
	if ratePerSec <= 0 {
		return &DeliveryLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &DeliveryLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until a token is granted. Called by the sink immediately
// before each delivery attempt. Returns a non-nil error only if ctx is
// cancelled while waiting.
func (l *DeliveryLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
