package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
)

func appendTestEvent(t *testing.T, repo mfa.SecurityEventRepository, subjectID uint, kind mfa.SecurityEventKind, metadata map[string]string) {
	event, err := mfa.NewSecurityEvent(subjectID, kind, metadata, "203.0.113.7", "Mozilla/5.0")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), event))
}

func TestSecurityEventRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecurityEventRepository(db, newNopLogger())
	ctx := context.Background()

	appendTestEvent(t, repo, 1, mfa.EventTotpEnrolled, nil)
	appendTestEvent(t, repo, 1, mfa.EventTotpActivated, map[string]string{"recovery_codes": "10"})
	appendTestEvent(t, repo, 2, mfa.EventDeviceTrusted, nil)

	events, err := repo.ListBySubjectID(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	kinds := make(map[mfa.SecurityEventKind]bool)
	for _, e := range events {
		assert.Equal(t, uint(1), e.SubjectID())
		assert.Equal(t, "203.0.113.7", e.IPAddress())
		kinds[e.Kind()] = true
	}
	assert.True(t, kinds[mfa.EventTotpEnrolled])
	assert.True(t, kinds[mfa.EventTotpActivated])
}

func TestSecurityEventRepository_List_MetadataRoundtrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecurityEventRepository(db, newNopLogger())
	ctx := context.Background()

	appendTestEvent(t, repo, 1, mfa.EventRecoveryCodeConsumed, map[string]string{"remaining": "7"})

	events, err := repo.ListBySubjectID(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]string{"remaining": "7"}, events[0].Metadata())
}

func TestSecurityEventRepository_List_Paging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecurityEventRepository(db, newNopLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		appendTestEvent(t, repo, 1, mfa.EventTotpVerified, nil)
	}

	page, err := repo.ListBySubjectID(ctx, 1, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = repo.ListBySubjectID(ctx, 1, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = repo.ListBySubjectID(ctx, 1, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestSecurityEventRepository_CountBySubjectID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecurityEventRepository(db, newNopLogger())
	ctx := context.Background()

	count, err := repo.CountBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	appendTestEvent(t, repo, 1, mfa.EventTotpEnrolled, nil)
	appendTestEvent(t, repo, 1, mfa.EventTotpActivated, nil)
	appendTestEvent(t, repo, 2, mfa.EventTotpEnrolled, nil)

	count, err = repo.CountBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
