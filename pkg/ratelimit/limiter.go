package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every outbound call to one remote system.
type Limiter struct {
	limiter *rate.Limiter
}

// New returns a limiter admitting rps calls per second with the given burst.
// A non-positive burst is treated as 1.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Execute defers fn until the limiter grants a token.
func Execute[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	if l != nil {
		if err := l.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}
	return fn(ctx)
}
