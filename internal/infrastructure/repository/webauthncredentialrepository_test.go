package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

var credentialCounter int

func assertCredentialNotFound(t *testing.T, err error) {
	t.Helper()
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeCredentialNotFound, appErr.Type)
}

func createTestCredential(t *testing.T, repo mfa.WebAuthnCredentialRepository, subjectID uint, signCount uint32) *mfa.WebAuthnCredential {
	credentialCounter++
	libCred := &webauthn.Credential{
		ID:              []byte(fmt.Sprintf("cred-%08d", credentialCounter)),
		PublicKey:       []byte("public-key"),
		AttestationType: "none",
		Transport:       []protocol.AuthenticatorTransport{protocol.Internal},
		Authenticator: webauthn.Authenticator{
			AAGUID:    []byte("aaguid"),
			SignCount: signCount,
		},
	}

	sid := fmt.Sprintf("wac_%08d", credentialCounter)
	credential, err := mfa.NewWebAuthnCredential(subjectID, libCred, "YubiKey", func() (string, error) { return sid, nil })
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), credential))
	return credential
}

func TestWebAuthnCredentialRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	ctx := context.Background()

	credential := createTestCredential(t, repo, 1, 5)
	assert.NotZero(t, credential.ID())

	got, err := repo.GetBySID(ctx, credential.SID())
	require.NoError(t, err)
	assert.Equal(t, credential.ID(), got.ID())
	assert.Equal(t, credential.CredentialID(), got.CredentialID())
	assert.Equal(t, uint32(5), got.SignCount())
	assert.Equal(t, []string{"internal"}, got.Transports())

	got, err = repo.GetByCredentialID(ctx, credential.CredentialID())
	require.NoError(t, err)
	assert.Equal(t, credential.ID(), got.ID())
}

func TestWebAuthnCredentialRepository_GetBySID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())

	_, err := repo.GetBySID(context.Background(), "wac_missing")
	require.Error(t, err)
	assertCredentialNotFound(t, err)
}

func TestWebAuthnCredentialRepository_CreateWithRecoveryBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	codes := NewRecoveryCodeRepository(db, newNopLogger())
	ctx := context.Background()

	credentialCounter++
	libCred := &webauthn.Credential{
		ID:        []byte(fmt.Sprintf("cred-%08d", credentialCounter)),
		PublicKey: []byte("public-key"),
	}
	sid := fmt.Sprintf("wac_%08d", credentialCounter)
	credential, err := mfa.NewWebAuthnCredential(1, libCred, "", func() (string, error) { return sid, nil })
	require.NoError(t, err)

	hashes := []string{"$2a$10$one", "$2a$10$two"}
	require.NoError(t, repo.CreateWithRecoveryBatch(ctx, credential, hashes))
	assert.NotZero(t, credential.ID())

	// The recovery batch lands in the same transaction
	count, err := codes.CountUnusedBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestWebAuthnCredentialRepository_GetBySubjectID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	ctx := context.Background()

	createTestCredential(t, repo, 1, 0)
	createTestCredential(t, repo, 1, 0)
	createTestCredential(t, repo, 2, 0)

	credentials, err := repo.GetBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, credentials, 2)
	for _, credential := range credentials {
		assert.Equal(t, uint(1), credential.SubjectID())
	}
}

func TestWebAuthnCredentialRepository_UpdateSignCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	ctx := context.Background()

	credential := createTestCredential(t, repo, 1, 5)

	applied, err := repo.UpdateSignCount(ctx, credential.ID(), 5, 6)
	require.NoError(t, err)
	assert.True(t, applied)

	// The guard is keyed on the previously observed counter: a stale
	// writer matches no row
	applied, err = repo.UpdateSignCount(ctx, credential.ID(), 5, 7)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.GetBySID(ctx, credential.SID())
	require.NoError(t, err)
	assert.Equal(t, uint32(6), got.SignCount())

	// Accepting the assertion stamps last_used_at in the same write
	require.NotNil(t, got.LastUsedAt())
}

func TestWebAuthnCredentialRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	ctx := context.Background()

	credential := createTestCredential(t, repo, 1, 0)
	credential.Rename("Backup key")
	require.NoError(t, repo.Update(ctx, credential))

	got, err := repo.GetBySID(ctx, credential.SID())
	require.NoError(t, err)
	assert.Equal(t, "Backup key", got.Nickname())
}

func TestWebAuthnCredentialRepository_DeleteBySID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	ctx := context.Background()

	credential := createTestCredential(t, repo, 1, 0)

	// Scoped to the owning subject
	err := repo.DeleteBySID(ctx, 2, credential.SID())
	assertCredentialNotFound(t, err)

	require.NoError(t, repo.DeleteBySID(ctx, 1, credential.SID()))

	_, err = repo.GetBySID(ctx, credential.SID())
	assertCredentialNotFound(t, err)
}

func TestWebAuthnCredentialRepository_CountAndExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebAuthnCredentialRepository(db, newNopLogger())
	ctx := context.Background()

	credential := createTestCredential(t, repo, 1, 0)

	count, err := repo.CountBySubjectID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.ExistsByCredentialID(ctx, credential.CredentialID())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCredentialID(ctx, []byte("unknown"))
	require.NoError(t, err)
	assert.False(t, exists)
}
