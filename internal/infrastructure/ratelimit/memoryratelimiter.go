package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimiter is a process-local sliding window limiter for
// single-instance deployments and tests.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewMemoryRateLimiter creates an in-memory sliding window limiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		attempts: make(map[string][]time.Time),
	}
}

// Check implements RateLimiter.
func (l *MemoryRateLimiter) Check(_ context.Context, key string, maxAttempts int, window time.Duration, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := now.Add(-window)
	kept := l.attempts[key][:0]
	for _, t := range l.attempts[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= maxAttempts {
		l.attempts[key] = kept
		return rateLimitError()
	}

	l.attempts[key] = append(kept, now)
	return nil
}

// Reset implements RateLimiter.
func (l *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
	return nil
}
