package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

// fakeClock advances instantly on Sleep so tests run without real waiting.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestGate_FirstRequestPassesImmediately(t *testing.T) {
	clock := newFakeClock()
	gate := NewGate(500*time.Millisecond, clock)

	err := gate.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, clock.sleeps, "first request should not sleep")
}

func TestGate_EnforcesMinimumInterval(t *testing.T) {
	clock := newFakeClock()
	gate := NewGate(500*time.Millisecond, clock)

	require.NoError(t, gate.Wait(context.Background()))
	require.NoError(t, gate.Wait(context.Background()))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 500*time.Millisecond, clock.sleeps[0])
}

func TestGate_NoWaitAfterIntervalElapsed(t *testing.T) {
	clock := newFakeClock()
	gate := NewGate(500*time.Millisecond, clock)

	require.NoError(t, gate.Wait(context.Background()))
	clock.now = clock.now.Add(time.Second)
	require.NoError(t, gate.Wait(context.Background()))

	assert.Empty(t, clock.sleeps)
}

func TestBackoff_RetriesOnlyRateLimits(t *testing.T) {
	clock := newFakeClock()
	b := Backoff{Base: 2 * time.Second, MaxAttempts: 3, Clock: clock}

	calls := 0
	err := b.Do(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "non-rate-limit errors must not be retried")
}

func TestBackoff_ExponentialDelays(t *testing.T) {
	clock := newFakeClock()
	b := Backoff{Base: 2 * time.Second, MaxAttempts: 3, Clock: clock}

	calls := 0
	err := b.Do(context.Background(), func() error {
		calls++
		return &domain.RateLimitedError{}
	})

	var rl *domain.RateLimitedError
	assert.True(t, errors.As(err, &rl), "exhausted backoff surfaces the rate limit")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.sleeps)
}

func TestBackoff_RecoveryStopsRetrying(t *testing.T) {
	clock := newFakeClock()
	b := DefaultBackoff(clock)

	calls := 0
	err := b.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &domain.RateLimitedError{}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
