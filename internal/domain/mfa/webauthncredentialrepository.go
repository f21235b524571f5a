package mfa

import "context"

// WebAuthnCredentialRepository defines the interface for WebAuthn credential data operations
type WebAuthnCredentialRepository interface {
	// Create creates a new credential
	Create(ctx context.Context, credential *WebAuthnCredential) error

	// CreateWithRecoveryBatch creates the credential and stores the recovery
	// code batch in the same transaction. Used when registration is the
	// subject's first second factor.
	CreateWithRecoveryBatch(ctx context.Context, credential *WebAuthnCredential, recoveryHashes []string) error

	// GetBySID retrieves a credential by external SID (wac_xxx)
	GetBySID(ctx context.Context, sid string) (*WebAuthnCredential, error)

	// GetByCredentialID retrieves a credential by raw WebAuthn credential ID
	GetByCredentialID(ctx context.Context, credentialID []byte) (*WebAuthnCredential, error)

	// GetBySubjectID retrieves all credentials for a subject
	GetBySubjectID(ctx context.Context, subjectID uint) ([]*WebAuthnCredential, error)

	// Update persists nickname and bookkeeping changes
	Update(ctx context.Context, credential *WebAuthnCredential) error

	// UpdateSignCount atomically applies the new signature counter, guarded on
	// the previously observed value. Returns false when another assertion got
	// there first.
	UpdateSignCount(ctx context.Context, id uint, oldCount, newCount uint32) (bool, error)

	// DeleteBySID deletes a credential by external SID, scoped to the subject
	DeleteBySID(ctx context.Context, subjectID uint, sid string) error

	// CountBySubjectID returns the number of credentials for a subject
	CountBySubjectID(ctx context.Context, subjectID uint) (int64, error)

	// ExistsByCredentialID checks whether a raw credential ID is registered
	ExistsByCredentialID(ctx context.Context, credentialID []byte) (bool, error)
}
