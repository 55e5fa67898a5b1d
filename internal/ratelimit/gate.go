package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return realClock{} }

// Gate serializes access to the marketplace API by enforcing a minimum
// interval between requests across all callers in the process. The upstream
// enforces a request-rate ceiling; this is the one piece of shared mutable
// state in the engine.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	clock    Clock
}

// NewGate creates a gate with the given minimum inter-request interval.
func NewGate(interval time.Duration, clock Clock) *Gate {
	if clock == nil {
		clock = SystemClock()
	}
	return &Gate{interval: interval, clock: clock}
}

// Wait blocks until the minimum interval since the previous request has
// elapsed, then claims the current slot.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.clock.Now()
		next := g.last.Add(g.interval)
		if g.last.IsZero() || !now.Before(next) {
			g.last = now
			g.mu.Unlock()
			return nil
		}
		wait := next.Sub(now)
		g.mu.Unlock()

		if err := g.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Backoff retries an operation on rate-limit signals with exponentially
// growing delays before surfacing the failure.
type Backoff struct {
	Base        time.Duration // first delay (doubles per attempt)
	MaxAttempts int
	Clock       Clock
}

// DefaultBackoff matches the marketplace retry discipline: 2s base, doubling,
// capped at 3 attempts.
func DefaultBackoff(clock Clock) Backoff {
	return Backoff{Base: 2 * time.Second, MaxAttempts: 3, Clock: clock}
}

// Do runs fn, retrying only when it fails with *domain.RateLimitedError.
// Any other error propagates immediately.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	clock := b.Clock
	if clock == nil {
		clock = SystemClock()
	}
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := b.Base
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var rl *domain.RateLimitedError
		if !errors.As(err, &rl) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := delay
		if rl.RetryAfter > wait {
			wait = rl.RetryAfter
		}
		if sleepErr := clock.Sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
	}
	return err
}
