package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims expired entries, counts what remains, and records
// the attempt only when the window has room. Running as one script keeps the
// count-then-add race out: two concurrent attempts at the limit cannot both
// slip in.
//
// KEYS[1] = attempt set
// ARGV[1] = window start (unix nanos), ARGV[2] = now (unix nanos),
// ARGV[3] = max attempts, ARGV[4] = member, ARGV[5] = key TTL millis
// Returns 1 when the attempt was recorded, 0 when denied.
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '0', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RedisRateLimiter is the shared-state limiter for multi-instance deployments.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisRateLimiter creates a Redis-backed sliding window limiter.
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: "mfa:ratelimit:",
	}
}

// Check implements RateLimiter.
func (l *RedisRateLimiter) Check(ctx context.Context, key string, maxAttempts int, window time.Duration, now time.Time) error {
	if maxAttempts <= 0 {
		return rateLimitError()
	}

	redisKey := l.prefix + key
	windowStart := now.Add(-window).UnixNano()

	// The member must be unique per attempt even under an identical timestamp,
	// otherwise ZADD overwrites and attempts go uncounted.
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	allowed, err := slidingWindowScript.Run(ctx, l.client,
		[]string{redisKey},
		windowStart,
		now.UnixNano(),
		maxAttempts,
		member,
		window.Milliseconds()+time.Minute.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to run rate limit script: %w", err)
	}

	if allowed == 0 {
		return rateLimitError()
	}
	return nil
}

// Reset implements RateLimiter.
func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit key: %w", err)
	}
	return nil
}
