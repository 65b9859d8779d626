// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package web

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewRateLimiter(t *testing.T) {
	t.Run("zero values use defaults", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{})
		defer rl.Close()

		assert.InDelta(t, float64(DefaultRateLimitMax), rl.capacity, 0)
		assert.InDelta(t, float64(DefaultRateLimitMax)/DefaultRateLimitWindow.Seconds(), rl.rate, 1e-9)
		assert.Equal(t, DefaultRateLimitWindow, rl.maxIdle)
	})

	t.Run("custom values", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 10, Window: time.Minute})
		defer rl.Close()

		assert.InDelta(t, 10.0, rl.capacity, 0)
		assert.InDelta(t, 10.0/60.0, rl.rate, 1e-9)
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to max then refuses", func(t *testing.T) {
		clock := newFakeClock()
		rl := NewRateLimiter(RateLimiterConfig{Max: 3, Window: time.Minute, Now: clock.Now})
		defer rl.Close()

		for i := range 3 {
			allowed, retry := rl.Allow("10.0.0.1")
			require.True(t, allowed, "request %d", i+1)
			assert.Zero(t, retry)
		}

		allowed, retry := rl.Allow("10.0.0.1")
		assert.False(t, allowed)
		assert.InDelta(t, 20.0, retry.Seconds(), 0.001, "one token refills every window/max")
	})

	t.Run("clients are independent", func(t *testing.T) {
		clock := newFakeClock()
		rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute, Now: clock.Now})
		defer rl.Close()

		allowed, _ := rl.Allow("a")
		assert.True(t, allowed)
		allowed, _ = rl.Allow("a")
		assert.False(t, allowed)

		allowed, _ = rl.Allow("b")
		assert.True(t, allowed)
	})

	t.Run("tokens refill over time without exceeding max", func(t *testing.T) {
		clock := newFakeClock()
		rl := NewRateLimiter(RateLimiterConfig{Max: 2, Window: time.Minute, Now: clock.Now})
		defer rl.Close()

		rl.Allow("a")
		rl.Allow("a")
		allowed, _ := rl.Allow("a")
		require.False(t, allowed)

		clock.Advance(30 * time.Second)
		allowed, _ = rl.Allow("a")
		assert.True(t, allowed)

		clock.Advance(time.Hour)
		rl.Allow("a")
		rl.Allow("a")
		allowed, _ = rl.Allow("a")
		assert.False(t, allowed, "bucket never holds more than max")
	})
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	reg := prometheus.NewRegistry()
	rl := NewRateLimiterWithRegistry(RateLimiterConfig{Max: 5, Window: time.Minute, Now: clock.Now}, reg)
	defer rl.Close()

	rl.Allow("old")
	clock.Advance(2 * time.Minute)
	rl.Allow("recent")
	require.Equal(t, 2, rl.ClientCount())

	rl.Cleanup(time.Minute)
	assert.Equal(t, 1, rl.ClientCount())
	assert.InDelta(t, 1.0, testutil.ToFloat64(rl.clientGauge), 0)
}

func TestRateLimiter_Concurrency(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Max: 50, Window: time.Hour})
	defer rl.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := rl.Allow(fmt.Sprintf("client-%d", i%2))
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed, "two clients with fifty tokens each")
	assert.Equal(t, 2, rl.ClientCount())
}

func TestRateLimiter_CloseStopsCleanupGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(RateLimiterConfig{CleanupInterval: time.Millisecond})
	rl.Allow("a")
	time.Sleep(5 * time.Millisecond)
	rl.Close()
	rl.Close()
}
