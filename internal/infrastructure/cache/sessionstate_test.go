package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestSessionStateStore_PutAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)
	ctx := context.Background()

	err := store.Put(ctx, "sess-1", 42, mfa.StateAwaitingSecondFactor)
	require.NoError(t, err)

	view, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), view.SubjectID)
	assert.Equal(t, mfa.StateAwaitingSecondFactor, view.State)
}

func TestSessionStateStore_Get_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSessionStateStore_Get_EmptySessionID(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)

	_, err := store.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestSessionStateStore_SetState(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", 42, mfa.StateAwaitingSecondFactor))

	require.NoError(t, store.SetState(ctx, "sess-1", mfa.StateVerified))

	view, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), view.SubjectID)
	assert.Equal(t, mfa.StateVerified, view.State)
}

func TestSessionStateStore_SetState_MissingSession(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)

	// Advancing a vanished session must not recreate it
	err := store.SetState(context.Background(), "gone", mfa.StateVerified)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	_, err = store.Get(context.Background(), "gone")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSessionStateStore_Put_RejectsUnknownState(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)

	err := store.Put(context.Background(), "sess-1", 42, mfa.SecondFactorState("bogus"))
	assert.Error(t, err)
}

func TestSessionStateStore_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", 42, mfa.StateVerified))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Get(ctx, "sess-1")
	assert.True(t, errors.IsNotFoundError(err))

	// Deleting a missing session is not an error
	assert.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestSessionStateStore_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStateStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", 42, mfa.StateVerified))

	mr.FastForward(time.Hour + time.Minute)

	_, err := store.Get(ctx, "sess-1")
	assert.True(t, errors.IsNotFoundError(err), "expired session should read as missing")
}
