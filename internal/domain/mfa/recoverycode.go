package mfa

import (
	"fmt"
	"time"
)

// RecoveryCode is a single-use backup credential. Only the hash is stored;
// the plaintext exists once, at generation time, on its way to the subject.
type RecoveryCode struct {
	id        uint
	subjectID uint
	codeHash  string
	usedAt    *time.Time
	createdAt time.Time
}

// NewRecoveryCode creates an unused recovery code from its hash.
func NewRecoveryCode(subjectID uint, codeHash string) (*RecoveryCode, error) {
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}
	if codeHash == "" {
		return nil, fmt.Errorf("code hash is required")
	}

	return &RecoveryCode{
		subjectID: subjectID,
		codeHash:  codeHash,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructRecoveryCode rebuilds a recovery code from persistence.
func ReconstructRecoveryCode(
	id uint,
	subjectID uint,
	codeHash string,
	usedAt *time.Time,
	createdAt time.Time,
) (*RecoveryCode, error) {
	if id == 0 {
		return nil, fmt.Errorf("recovery code ID cannot be zero")
	}
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}

	return &RecoveryCode{
		id:        id,
		subjectID: subjectID,
		codeHash:  codeHash,
		usedAt:    usedAt,
		createdAt: createdAt,
	}, nil
}

func (r *RecoveryCode) ID() uint             { return r.id }
func (r *RecoveryCode) SubjectID() uint      { return r.subjectID }
func (r *RecoveryCode) CodeHash() string     { return r.codeHash }
func (r *RecoveryCode) UsedAt() *time.Time   { return r.usedAt }
func (r *RecoveryCode) CreatedAt() time.Time { return r.createdAt }

// IsUsed reports whether the code was already consumed.
func (r *RecoveryCode) IsUsed() bool {
	return r.usedAt != nil
}

// MarkUsed consumes the code. A used code stays in storage as an audit
// record; it is never accepted again.
func (r *RecoveryCode) MarkUsed() error {
	if r.IsUsed() {
		return fmt.Errorf("recovery code already used at %s", r.usedAt.Format(time.RFC3339))
	}
	now := time.Now().UTC()
	r.usedAt = &now
	return nil
}
