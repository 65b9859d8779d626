// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package web

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rate limiting defaults for the auth routes.
const (
	// DefaultRateLimitMax is the number of requests a client may burst.
	DefaultRateLimitMax = 100

	// DefaultRateLimitWindow is the time it takes an empty bucket to refill.
	DefaultRateLimitWindow = 15 * time.Minute

	// DefaultCleanupInterval is how often idle clients are forgotten.
	DefaultCleanupInterval = 5 * time.Minute
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Max is the bucket capacity. Defaults to DefaultRateLimitMax if zero or negative.
	Max int

	// Window is the time to refill Max tokens. Defaults to DefaultRateLimitWindow.
	Window time.Duration

	// CleanupInterval is the interval at which background cleanup runs.
	// Defaults to DefaultCleanupInterval if zero.
	CleanupInterval time.Duration

	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// clientBucket tracks token bucket state for a single client.
type clientBucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter implements per-client rate limiting using a token bucket.
// A client starts with Max tokens, and tokens refill at Max per Window.
// It is safe for concurrent use.
//
// The RateLimiter runs a background goroutine to forget idle clients.
// Call Close to stop it.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	capacity float64
	rate     float64 // tokens per second
	maxIdle  time.Duration
	now      func() time.Time

	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	clientGauge prometheus.Gauge
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter(cfg, nil)
}

// NewRateLimiterWithRegistry creates a rate limiter and registers a gauge of
// tracked clients with reg.
func NewRateLimiterWithRegistry(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	return newRateLimiter(cfg, reg)
}

func newRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	maxRequests := cfg.Max
	if maxRequests <= 0 {
		maxRequests = DefaultRateLimitMax
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	rl := &RateLimiter{
		clients:  make(map[string]*clientBucket),
		capacity: float64(maxRequests),
		rate:     float64(maxRequests) / window.Seconds(),
		// A client idle for a full window has a full bucket again.
		maxIdle:  window,
		now:      now,
		stopChan: make(chan struct{}),
	}

	if reg != nil {
		rl.clientGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thryve_ratelimiter_clients",
			Help: "Current number of clients tracked by the auth rate limiter",
		})
		reg.MustRegister(rl.clientGauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cleanupInterval)

	return rl
}

// Allow consumes a token for key. When no token is available it returns false
// and the time until one will be.
func (rl *RateLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	bucket, exists := rl.clients[key]
	if !exists {
		bucket = &clientBucket{tokens: rl.capacity, lastCheck: now}
		rl.clients[key] = bucket
	}

	elapsed := now.Sub(bucket.lastCheck).Seconds()
	if elapsed > 0 {
		bucket.tokens += elapsed * rl.rate
		if bucket.tokens > rl.capacity {
			bucket.tokens = rl.capacity
		}
	}
	bucket.lastCheck = now

	if bucket.tokens >= 1.0 {
		bucket.tokens--
		return true, 0
	}

	deficit := 1.0 - bucket.tokens
	return false, time.Duration(deficit / rl.rate * float64(time.Second))
}

// ClientCount returns the number of tracked clients.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Cleanup forgets clients not seen within maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-maxAge)
	for key, bucket := range rl.clients {
		if bucket.lastCheck.Before(threshold) {
			delete(rl.clients, key)
		}
	}

	if rl.clientGauge != nil {
		rl.clientGauge.Set(float64(len(rl.clients)))
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Cleanup(rl.maxIdle)
		}
	}
}

// Close stops the cleanup goroutine and waits for it. Safe to call twice.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stopChan) })
	rl.wg.Wait()
}
