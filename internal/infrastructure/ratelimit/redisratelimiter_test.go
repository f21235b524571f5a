package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client
}

func TestRedisRateLimiter_Check(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")

	for i := 0; i < 5; i++ {
		err := limiter.Check(ctx, key, 5, window, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err, "attempt %d should be allowed", i+1)
	}

	err := limiter.Check(ctx, key, 5, window, now.Add(10*time.Second))
	assert.Error(t, err, "6th attempt should be denied")
}

func TestRedisRateLimiter_SlidingWindow(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "totp")

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, key, 3, window, now))
	}
	require.Error(t, limiter.Check(ctx, key, 3, window, now.Add(time.Minute)))

	// Once the original attempts slide out of the window, new ones fit
	require.NoError(t, limiter.Check(ctx, key, 3, window, now.Add(window+time.Second)))
}

func TestRedisRateLimiter_DeniedAttemptNotRecorded(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	key := AttemptKey(1, "recovery_code")

	require.NoError(t, limiter.Check(ctx, key, 1, window, now))

	// Denied attempts must not push the lockout forward
	for i := 1; i <= 10; i++ {
		require.Error(t, limiter.Check(ctx, key, 1, window, now.Add(time.Duration(i)*time.Second)))
	}

	// Only the recorded attempt counts: the window elapses on its schedule
	require.NoError(t, limiter.Check(ctx, key, 1, window, now.Add(window+time.Second)))
}

func TestRedisRateLimiter_DifferentKeys(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	require.NoError(t, limiter.Check(ctx, AttemptKey(1, "totp"), 1, window, now))
	require.Error(t, limiter.Check(ctx, AttemptKey(1, "totp"), 1, window, now))

	require.NoError(t, limiter.Check(ctx, AttemptKey(2, "totp"), 1, window, now))
	require.NoError(t, limiter.Check(ctx, AttemptKey(1, "webauthn"), 1, window, now))
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
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

func TestRedisRateLimiter_ZeroLimitDeniesAll(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Error(t, limiter.Check(ctx, AttemptKey(1, "totp"), 0, 5*time.Minute, now))
}
