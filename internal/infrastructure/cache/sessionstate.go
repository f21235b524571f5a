package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	apperrors "github.com/inkwell-press/inkwell/internal/shared/errors"
)

const (
	// SessionStatePrefix is the Redis key prefix for session verification state
	SessionStatePrefix = "mfa:session:"
	// DefaultSessionStateTTL is used when no TTL is configured
	DefaultSessionStateTTL = 24 * time.Hour
)

// SessionStateStore is the Redis-backed mfa.SessionGateway. Each session is a
// hash carrying the subject and the second-factor state, expiring with the
// surrounding login session.
type SessionStateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStateStore creates a session state store.
func NewSessionStateStore(client *redis.Client, ttl time.Duration) *SessionStateStore {
	if ttl == 0 {
		ttl = DefaultSessionStateTTL
	}
	return &SessionStateStore{
		client: client,
		prefix: SessionStatePrefix,
		ttl:    ttl,
	}
}

// Get implements mfa.SessionGateway.
func (s *SessionStateStore) Get(ctx context.Context, sessionID string) (*mfa.SessionView, error) {
	if sessionID == "" {
		return nil, errors.New("session ID cannot be empty")
	}

	values, err := s.client.HGetAll(ctx, s.buildKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session state from Redis: %w", err)
	}
	if len(values) == 0 {
		return nil, apperrors.NewNotFoundError("session not found")
	}

	subjectID, err := strconv.ParseUint(values["subject_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session state: bad subject ID: %w", err)
	}

	state := mfa.SecondFactorState(values["state"])
	if !state.IsValid() {
		return nil, fmt.Errorf("corrupt session state: unknown state %q", values["state"])
	}

	return &mfa.SessionView{
		SubjectID: uint(subjectID),
		State:     state,
	}, nil
}

// Put implements mfa.SessionGateway.
func (s *SessionStateStore) Put(ctx context.Context, sessionID string, subjectID uint, state mfa.SecondFactorState) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if !state.IsValid() {
		return fmt.Errorf("invalid second factor state: %q", state)
	}

	key := s.buildKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "subject_id", strconv.FormatUint(uint64(subjectID), 10), "state", string(state))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session state to Redis: %w", err)
	}

	return nil
}

// SetState implements mfa.SessionGateway. The session must already exist;
// advancing the state of a vanished session is an error, not an upsert.
func (s *SessionStateStore) SetState(ctx context.Context, sessionID string, state mfa.SecondFactorState) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if !state.IsValid() {
		return fmt.Errorf("invalid second factor state: %q", state)
	}

	key := s.buildKey(sessionID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check session state in Redis: %w", err)
	}
	if exists == 0 {
		return apperrors.NewNotFoundError("session not found")
	}

	if err := s.client.HSet(ctx, key, "state", string(state)).Err(); err != nil {
		return fmt.Errorf("failed to update session state in Redis: %w", err)
	}

	return nil
}

// Delete implements mfa.SessionGateway.
func (s *SessionStateStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if err := s.client.Del(ctx, s.buildKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session state from Redis: %w", err)
	}
	return nil
}

// buildKey constructs the full Redis key
func (s *SessionStateStore) buildKey(sessionID string) string {
	return s.prefix + sessionID
}
