package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket. A nil *Limiter never limits.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter returns a limiter refilling perSecond tokens with the given
// burst, or nil when perSecond is not positive.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until a token is available or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.inner.Wait(ctx)
}
