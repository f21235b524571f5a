package mfa

import (
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibraryCredential(signCount uint32) *webauthn.Credential {
	return &webauthn.Credential{
		ID:              []byte("cred-id"),
		PublicKey:       []byte("public-key"),
		AttestationType: "none",
		Transport:       []protocol.AuthenticatorTransport{protocol.Internal},
		Flags: webauthn.CredentialFlags{
			BackupEligible: true,
			BackupState:    true,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    []byte("aaguid"),
			SignCount: signCount,
		},
	}
}

func TestNewWebAuthnCredential(t *testing.T) {
	cred, err := NewWebAuthnCredential(42, testLibraryCredential(5), "YubiKey", staticSID("wac_test1"))
	require.NoError(t, err)

	assert.Equal(t, "wac_test1", cred.SID())
	assert.Equal(t, uint(42), cred.SubjectID())
	assert.Equal(t, []byte("cred-id"), cred.CredentialID())
	assert.Equal(t, uint32(5), cred.SignCount())
	assert.Equal(t, []string{"internal"}, cred.Transports())
	assert.Equal(t, "YubiKey", cred.Nickname())
	assert.True(t, cred.BackupEligible())
	assert.Nil(t, cred.LastUsedAt())
}

func TestNewWebAuthnCredential_Validation(t *testing.T) {
	_, err := NewWebAuthnCredential(0, testLibraryCredential(0), "", staticSID("wac_test1"))
	assert.Error(t, err)

	_, err = NewWebAuthnCredential(42, nil, "", staticSID("wac_test1"))
	assert.Error(t, err)

	noKey := testLibraryCredential(0)
	noKey.PublicKey = nil
	_, err = NewWebAuthnCredential(42, noKey, "", staticSID("wac_test1"))
	assert.Error(t, err)
}

func TestWebAuthnCredential_UpdateSignCount(t *testing.T) {
	// Authenticator that never reports counters: stored stays 0, 0 accepted
	cred, err := NewWebAuthnCredential(42, testLibraryCredential(0), "", staticSID("wac_test1"))
	require.NoError(t, err)
	require.NoError(t, cred.UpdateSignCount(0))
	assert.Equal(t, uint32(0), cred.SignCount())

	// Authenticator starts counting: accept the first nonzero value
	require.NoError(t, cred.UpdateSignCount(7))
	assert.Equal(t, uint32(7), cred.SignCount())

	// Normal strictly increasing counter
	require.NoError(t, cred.UpdateSignCount(8))

	// Once counting, a stalled or regressed counter reads as a clone
	assert.Error(t, cred.UpdateSignCount(8))
	assert.Error(t, cred.UpdateSignCount(3))
	assert.Error(t, cred.UpdateSignCount(0))
	assert.Equal(t, uint32(8), cred.SignCount())
}

func TestWebAuthnCredential_UpdateLastUsed(t *testing.T) {
	cred, err := NewWebAuthnCredential(42, testLibraryCredential(0), "", staticSID("wac_test1"))
	require.NoError(t, err)

	cred.UpdateLastUsed()
	require.NotNil(t, cred.LastUsedAt())
}

func TestWebAuthnCredential_ToWebAuthnCredential(t *testing.T) {
	cred, err := NewWebAuthnCredential(42, testLibraryCredential(5), "", staticSID("wac_test1"))
	require.NoError(t, err)

	lib := cred.ToWebAuthnCredential()
	assert.Equal(t, []byte("cred-id"), lib.ID)
	assert.Equal(t, []byte("public-key"), lib.PublicKey)
	assert.Equal(t, uint32(5), lib.Authenticator.SignCount)
	assert.Equal(t, []protocol.AuthenticatorTransport{protocol.Internal}, lib.Transport)
}

func TestReconstructWebAuthnCredential_Validation(t *testing.T) {
	at := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

	_, err := ReconstructWebAuthnCredential(0, "wac_test1", 42, []byte("cred-id"), []byte("pk"), "none", nil, 0, false, false, nil, "", nil, at, at)
	assert.Error(t, err)

	_, err = ReconstructWebAuthnCredential(1, "", 42, []byte("cred-id"), []byte("pk"), "none", nil, 0, false, false, nil, "", nil, at, at)
	assert.Error(t, err)
}
