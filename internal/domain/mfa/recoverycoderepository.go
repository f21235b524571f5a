package mfa

import "context"

// RecoveryCodeRepository defines the interface for recovery code data operations
type RecoveryCodeRepository interface {
	// ReplaceBatch deletes the subject's existing codes and stores a fresh
	// batch of hashes in one transaction
	ReplaceBatch(ctx context.Context, subjectID uint, codeHashes []string) error

	// GetUnusedBySubjectID retrieves the subject's unconsumed codes
	GetUnusedBySubjectID(ctx context.Context, subjectID uint) ([]*RecoveryCode, error)

	// MarkUsed atomically consumes a code. Returns false when the code was
	// already consumed by a concurrent attempt.
	MarkUsed(ctx context.Context, id uint) (bool, error)

	// CountUnusedBySubjectID returns how many codes remain
	CountUnusedBySubjectID(ctx context.Context, subjectID uint) (int64, error)

	// DeleteBySubjectID removes all of the subject's codes
	DeleteBySubjectID(ctx context.Context, subjectID uint) error
}
