package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
)

const (
	// WebAuthnChallengePrefix is the Redis key prefix for ceremony challenges
	WebAuthnChallengePrefix = "mfa:webauthn:challenge:"
	// WebAuthnChallengeTTL bounds how long a started ceremony stays completable
	WebAuthnChallengeTTL = 3 * time.Minute
)

// WebAuthnChallengeStore holds session data for in-flight WebAuthn
// registration and login ceremonies. Retrieval is destructive: each challenge
// can complete at most one ceremony.
type WebAuthnChallengeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewWebAuthnChallengeStore creates a challenge store with default settings.
func NewWebAuthnChallengeStore(client *redis.Client) *WebAuthnChallengeStore {
	return &WebAuthnChallengeStore{
		client: client,
		prefix: WebAuthnChallengePrefix,
		ttl:    WebAuthnChallengeTTL,
	}
}

// Store saves ceremony session data keyed by its challenge.
func (s *WebAuthnChallengeStore) Store(ctx context.Context, sessionData *webauthn.SessionData) error {
	if sessionData == nil {
		return errors.New("session data cannot be nil")
	}
	if sessionData.Challenge == "" {
		return errors.New("challenge cannot be empty")
	}

	data, err := json.Marshal(sessionData)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	key := s.buildKey(sessionData.Challenge)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session data in Redis: %w", err)
	}

	return nil
}

// Consume retrieves and deletes ceremony session data by challenge.
func (s *WebAuthnChallengeStore) Consume(ctx context.Context, challenge string) (*webauthn.SessionData, error) {
	if challenge == "" {
		return nil, errors.New("challenge cannot be empty")
	}

	key := s.buildKey(challenge)

	// GETDEL gives one-time use semantics
	data, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("challenge not found or expired")
		}
		return nil, fmt.Errorf("failed to retrieve session data from Redis: %w", err)
	}

	var sessionData webauthn.SessionData
	if err := json.Unmarshal([]byte(data), &sessionData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &sessionData, nil
}

// buildKey constructs the full Redis key
func (s *WebAuthnChallengeStore) buildKey(challenge string) string {
	return s.prefix + challenge
}
