package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

var sidCounter int

func nextSID() func() (string, error) {
	sidCounter++
	sid := fmt.Sprintf("tdv_%08d", sidCounter)
	return func() (string, error) { return sid, nil }
}

func createTestDevice(t *testing.T, repo mfa.TrustedDeviceRepository, subjectID uint, tokenHash string, expiresAt time.Time) *mfa.TrustedDevice {
	device, err := mfa.NewTrustedDevice(subjectID, tokenHash, "Laptop", "Mozilla/5.0", "203.0.113.7", expiresAt, nextSID())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), device))
	return device
}

func TestTrustedDeviceRepository_CreateAndGetByTokenHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	device := createTestDevice(t, repo, 1, "hash-a", expiresAt)
	assert.NotZero(t, device.ID())

	got, err := repo.GetByTokenHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, device.SID(), got.SID())
	assert.Equal(t, uint(1), got.SubjectID())
	assert.Equal(t, "Laptop", got.DeviceName())
}

func TestTrustedDeviceRepository_GetByTokenHash_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())

	_, err := repo.GetByTokenHash(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestTrustedDeviceRepository_GetBySID_ScopedToSubject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(time.Hour)
	device := createTestDevice(t, repo, 1, "hash-a", expiresAt)

	got, err := repo.GetBySID(ctx, 1, device.SID())
	require.NoError(t, err)
	assert.Equal(t, device.SID(), got.SID())

	// Another subject cannot address this device
	_, err = repo.GetBySID(ctx, 2, device.SID())
	assert.True(t, errors.IsNotFoundError(err))
}

func TestTrustedDeviceRepository_GetBySubjectID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(time.Hour)
	createTestDevice(t, repo, 1, "hash-a", expiresAt)
	createTestDevice(t, repo, 1, "hash-b", expiresAt)
	createTestDevice(t, repo, 2, "hash-c", expiresAt)

	devices, err := repo.GetBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	devices, err = repo.GetBySubjectID(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestTrustedDeviceRepository_UpdateLastSeen(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	device := createTestDevice(t, repo, 1, "hash-a", time.Now().UTC().Add(time.Hour))
	assert.Nil(t, device.LastSeenAt())

	seenAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastSeen(ctx, device.ID(), seenAt))

	got, err := repo.GetByTokenHash(ctx, "hash-a")
	require.NoError(t, err)
	require.NotNil(t, got.LastSeenAt())
	assert.WithinDuration(t, seenAt, *got.LastSeenAt(), time.Second)
}

func TestTrustedDeviceRepository_DeleteBySID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	device := createTestDevice(t, repo, 1, "hash-a", time.Now().UTC().Add(time.Hour))

	// Revocation is scoped: the wrong subject deletes nothing
	err := repo.DeleteBySID(ctx, 2, device.SID())
	assert.True(t, errors.IsNotFoundError(err))

	require.NoError(t, repo.DeleteBySID(ctx, 1, device.SID()))

	_, err = repo.GetByTokenHash(ctx, "hash-a")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestTrustedDeviceRepository_DeleteBySubjectID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(time.Hour)
	createTestDevice(t, repo, 1, "hash-a", expiresAt)
	createTestDevice(t, repo, 1, "hash-b", expiresAt)
	createTestDevice(t, repo, 2, "hash-c", expiresAt)

	count, err := repo.DeleteBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The other subject's device survives
	_, err = repo.GetByTokenHash(ctx, "hash-c")
	assert.NoError(t, err)
}

func TestTrustedDeviceRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrustedDeviceRepository(db, newNopLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	createTestDevice(t, repo, 1, "hash-old", now.Add(-time.Hour))
	createTestDevice(t, repo, 1, "hash-live", now.Add(time.Hour))

	count, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetByTokenHash(ctx, "hash-old")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = repo.GetByTokenHash(ctx, "hash-live")
	assert.NoError(t, err)
}
