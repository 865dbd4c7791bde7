package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff describes how Retry spaces its attempts. Zero fields take the
// defaults of DefaultBackoff.
type Backoff struct {
	// Attempts is the total number of tries, the first included.
	Attempts int
	// Base is the wait before the second try; it doubles after each retry.
	Base time.Duration
	// Max caps any single wait, a Retry-After hint included.
	Max time.Duration
	// Jitter randomizes each wait by up to this fraction either way.
	Jitter float64
}

// DefaultBackoff is used for the OCR API.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Base: 500 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.25}
}

func (b Backoff) withDefaults() Backoff {
	d := DefaultBackoff()
	if b.Attempts <= 0 {
		b.Attempts = d.Attempts
	}
	if b.Base <= 0 {
		b.Base = d.Base
	}
	if b.Max <= 0 {
		b.Max = d.Max
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	return b
}

// Retry calls fn until it succeeds, fails with an error that is not
// Retryable, or runs out of attempts. The last error is returned as is.
func Retry[T any](ctx context.Context, op string, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	b = b.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= b.Attempts || ctx.Err() != nil || !Retryable(err) {
			return zero, err
		}

		wait := b.delay(attempt, err)
		zap.L().Warn("retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
}

// delay is the wait after the given failed attempt (1-based).
func (b Backoff) delay(attempt int, err error) time.Duration {
	d := b.Max
	if attempt <= 30 {
		if exp := b.Base << (attempt - 1); exp > 0 && exp < b.Max {
			d = exp
		}
	}
	if b.Jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * b.Jitter * float64(d))
	}

	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > d {
		d = se.RetryAfter
	}
	return max(0, min(d, b.Max))
}
