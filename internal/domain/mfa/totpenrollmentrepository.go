package mfa

import "context"

// TotpEnrollmentRepository defines the interface for TOTP enrollment data operations
type TotpEnrollmentRepository interface {
	// Create creates a new enrollment
	Create(ctx context.Context, enrollment *TotpEnrollment) error

	// GetBySubjectID retrieves the subject's enrollment, active or pending
	GetBySubjectID(ctx context.Context, subjectID uint) (*TotpEnrollment, error)

	// Update persists changes to an existing enrollment
	Update(ctx context.Context, enrollment *TotpEnrollment) error

	// Activate marks the enrollment active with the proving step and stores the
	// recovery code batch in the same transaction
	Activate(ctx context.Context, subjectID uint, step int64, recoveryHashes []string) error

	// AdvanceUsedStep atomically moves the replay watermark forward. Returns
	// false when the step is at or below the stored watermark, meaning the code
	// was already consumed by a concurrent or earlier verification.
	AdvanceUsedStep(ctx context.Context, subjectID uint, step int64) (bool, error)

	// DeleteBySubjectID removes the subject's enrollment
	DeleteBySubjectID(ctx context.Context, subjectID uint) error
}
