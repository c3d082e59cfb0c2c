package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// BackoffStrategy returns the delay to wait after failed attempt n (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// BackoffFunc adapts a plain function to BackoffStrategy
type BackoffFunc func(attempt int) time.Duration

func (f BackoffFunc) NextDelay(attempt int) time.Duration { return f(attempt) }

// ExponentialBackoff doubles (by Multiplier) from BaseDelay up to MaxDelay.
// JitterFactor spreads each delay by up to that fraction in both directions.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff is used for feed page requests
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	d := float64(b.BaseDelay)
	for i := 1; i < attempt && d < float64(b.MaxDelay); i++ {
		d *= b.Multiplier
	}
	if b.MaxDelay > 0 {
		d = min(d, float64(b.MaxDelay))
	}
	if b.JitterFactor > 0 {
		d += d * b.JitterFactor * (2*rand.Float64() - 1)
	}
	return time.Duration(max(d, 0))
}

// ConstantBackoff always waits Delay
type ConstantBackoff struct {
	Delay time.Duration
}

func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return b.Delay
}

// Wait sleeps for delay unless ctx ends first
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
