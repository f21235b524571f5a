package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAuthnChallengeStore_StoreAndConsume(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewWebAuthnChallengeStore(client)
	ctx := context.Background()

	sessionData := &webauthn.SessionData{
		Challenge: "Y2hhbGxlbmdlLTE",
		UserID:    []byte{0, 0, 0, 42},
	}

	require.NoError(t, store.Store(ctx, sessionData))

	got, err := store.Consume(ctx, sessionData.Challenge)
	require.NoError(t, err)
	assert.Equal(t, sessionData.Challenge, got.Challenge)
	assert.Equal(t, sessionData.UserID, got.UserID)
}

func TestWebAuthnChallengeStore_ConsumeIsOneShot(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewWebAuthnChallengeStore(client)
	ctx := context.Background()

	sessionData := &webauthn.SessionData{Challenge: "b25jZS1vbmx5"}
	require.NoError(t, store.Store(ctx, sessionData))

	_, err := store.Consume(ctx, sessionData.Challenge)
	require.NoError(t, err)

	// A challenge can complete at most one ceremony
	_, err = store.Consume(ctx, sessionData.Challenge)
	assert.Error(t, err)
}

func TestWebAuthnChallengeStore_Consume_Unknown(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewWebAuthnChallengeStore(client)

	_, err := store.Consume(context.Background(), "never-stored")
	assert.Error(t, err)
}

func TestWebAuthnChallengeStore_Validation(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewWebAuthnChallengeStore(client)
	ctx := context.Background()

	assert.Error(t, store.Store(ctx, nil))
	assert.Error(t, store.Store(ctx, &webauthn.SessionData{}))

	_, err := store.Consume(ctx, "")
	assert.Error(t, err)
}

func TestWebAuthnChallengeStore_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewWebAuthnChallengeStore(client)
	ctx := context.Background()

	sessionData := &webauthn.SessionData{Challenge: "ZXhwaXJpbmc"}
	require.NoError(t, store.Store(ctx, sessionData))

	mr.FastForward(WebAuthnChallengeTTL + time.Second)

	_, err := store.Consume(ctx, sessionData.Challenge)
	assert.Error(t, err, "stale ceremony should not be completable")
}
