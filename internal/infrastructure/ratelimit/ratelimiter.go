// Package ratelimit bounds second-factor verification attempts per subject
// and method with a sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

// RateLimiter counts verification attempts in a sliding window. Check either
// records the attempt and returns nil, or returns a rate-limit error without
// recording anything: a denied attempt never extends the lockout.
type RateLimiter interface {
	// Check records an attempt under the key if the window has room, and
	// returns a rate-limit error otherwise. now is injected so callers and
	// tests control the clock.
	Check(ctx context.Context, key string, maxAttempts int, window time.Duration, now time.Time) error
	// Reset clears all recorded attempts for the key. Called after a
	// successful verification.
	Reset(ctx context.Context, key string) error
}

// AttemptKey builds the limiter key for a subject and verification method.
func AttemptKey(subjectID uint, method string) string {
	return fmt.Sprintf("%d:%s", subjectID, method)
}

func rateLimitError() error {
	return errors.NewRateLimitExceededError()
}
