// Package ratelimit provides a fixed-window request limiter for the webhook
// ingress. Two backing stores exist: an in-process map for single-instance
// deployments and a Redis counter shared across instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow and DefaultLimit match the webhook ingress defaults:
	// at most 100 deliveries per client per 60 seconds.
	DefaultWindow = 60 * time.Second
	DefaultLimit  = 100

	sweepInterval = 5 * time.Minute
)

// Limiter decides admission per client identifier. Implementations are
// best-effort abuse mitigation, not a security boundary; a restart may
// reset all counters.
type Limiter interface {
	Allow(ctx context.Context, clientID string) bool
	RetryAfter() time.Duration
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a mutex-guarded fixed-window counter map. Counters are
// per process instance; in a horizontally scaled deployment each instance
// enforces its own ceiling (use RedisLimiter for a shared one).
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	window  time.Duration
	limit   int
	stop    chan struct{}
	now     func() time.Time
}

// NewMemoryLimiter creates a memory-backed limiter and starts the
// background sweep that drops expired buckets to bound memory growth.
// Call Stop when the limiter is no longer needed.
func NewMemoryLimiter(window time.Duration, limit int) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		window:  window,
		limit:   limit,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go l.sweep()
	return l
}

// Allow admits the request if the client's window counter is below the
// ceiling. The first request of a new or expired window resets the counter
// to 1 and is always admitted.
func (l *MemoryLimiter) Allow(_ context.Context, clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientID]
	if !ok || now.After(b.resetAt) {
		l.buckets[clientID] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// RetryAfter returns the window length as the Retry-After hint for
// rejected requests.
func (l *MemoryLimiter) RetryAfter() time.Duration {
	return l.window
}

// Stop halts the background sweep goroutine.
func (l *MemoryLimiter) Stop() {
	close(l.stop)
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.removeExpired(l.now())
		case <-l.stop:
			return
		}
	}
}

func (l *MemoryLimiter) removeExpired(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, id)
		}
	}
}
