package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "steamreviews/pkg/errors"
)

// BackoffStrategy decides how long to pause after failed attempt n (1-based).
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles (by Multiplier) from BaseDelay up to MaxDelay.
// JitterFactor spreads each delay uniformly over ±JitterFactor of itself.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff is used by DefaultConfig: 1s, 2s, 4s ... capped at a minute.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	d := math.Min(
		float64(b.BaseDelay)*math.Pow(b.Multiplier, float64(attempt-1)),
		float64(b.MaxDelay),
	)
	if b.JitterFactor > 0 {
		// uniform in [d-j, d+j]
		j := d * b.JitterFactor
		d = d - j + rand.Float64()*2*j
	}
	return time.Duration(math.Max(d, 0))
}

// ErrorBackoff is a BackoffStrategy whose pause also depends on the failure.
// Do prefers NextDelayFor when the strategy has it.
type ErrorBackoff interface {
	BackoffStrategy
	NextDelayFor(attempt int, err error) time.Duration
}

// ThrottleBackoff pauses with Throttled after rate limit errors and with
// Other after any other failure.
type ThrottleBackoff struct {
	Throttled BackoffStrategy
	Other     BackoffStrategy
}

func (b *ThrottleBackoff) NextDelay(attempt int) time.Duration {
	return b.Other.NextDelay(attempt)
}

func (b *ThrottleBackoff) NextDelayFor(attempt int, err error) time.Duration {
	if errs.TypeOf(err) == errs.ErrorTypeRateLimit {
		return b.Throttled.NextDelay(attempt)
	}
	return b.Other.NextDelay(attempt)
}

func delayFor(b BackoffStrategy, attempt int, err error) time.Duration {
	if eb, ok := b.(ErrorBackoff); ok {
		return eb.NextDelayFor(attempt, err)
	}
	return b.NextDelay(attempt)
}

// ConstantBackoff sits out the same Delay before every retry.
type ConstantBackoff struct {
	Delay time.Duration
}

func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return b.Delay
}

// Wait blocks for delay or until ctx ends, whichever is first. A
// non-positive delay only reports ctx's state.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
