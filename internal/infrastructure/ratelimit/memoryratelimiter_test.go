package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

func TestMemoryRateLimiter_Check(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")

	for i := 0; i < 5; i++ {
		err := limiter.Check(ctx, key, 5, window, now)
		require.NoError(t, err, "attempt %d should be allowed", i+1)
	}

	err := limiter.Check(ctx, key, 5, window, now)
	require.Error(t, err, "6th attempt should be denied")

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeRateLimitExceeded, appErr.Type)
}

func TestMemoryRateLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, key, 3, window, now))
	}
	require.Error(t, limiter.Check(ctx, key, 3, window, now))

	// Still inside the window
	require.Error(t, limiter.Check(ctx, key, 3, window, now.Add(4*time.Minute)))

	// The first three attempts slide out
	require.NoError(t, limiter.Check(ctx, key, 3, window, now.Add(5*time.Minute+time.Second)))
}

func TestMemoryRateLimiter_DeniedAttemptDoesNotExtendLockout(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")

	require.NoError(t, limiter.Check(ctx, key, 1, window, now))

	// Hammering while locked out must not reset the clock
	for i := 0; i < 10; i++ {
		require.Error(t, limiter.Check(ctx, key, 1, window, now.Add(time.Duration(i)*time.Second)))
	}

	require.NoError(t, limiter.Check(ctx, key, 1, window, now.Add(window+time.Second)))
}

func TestMemoryRateLimiter_DifferentKeys(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	require.NoError(t, limiter.Check(ctx, AttemptKey(1, "totp"), 1, window, now))
	require.Error(t, limiter.Check(ctx, AttemptKey(1, "totp"), 1, window, now))

	// Other subjects and other methods are unaffected
	require.NoError(t, limiter.Check(ctx, AttemptKey(2, "totp"), 1, window, now))
	require.NoError(t, limiter.Check(ctx, AttemptKey(1, "recovery_code"), 1, window, now))
}

func TestMemoryRateLimiter_Reset(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, key, 3, window, now))
	}
	require.Error(t, limiter.Check(ctx, key, 3, window, now))

	require.NoError(t, limiter.Reset(ctx, key))

	require.NoError(t, limiter.Check(ctx, key, 3, window, now))
}

func TestMemoryRateLimiter_Concurrent(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")
	maxAttempts := 5

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Check(ctx, key, maxAttempts, window, now); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxAttempts, allowed, "exactly maxAttempts goroutines should get through")
}
