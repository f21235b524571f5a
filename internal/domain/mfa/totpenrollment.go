// Package mfa holds the second-factor domain model: enrollments, credentials,
// recovery codes, trusted devices, the session state machine, and the
// repository contracts the infrastructure layer implements.
package mfa

import (
	"fmt"
	"time"
)

// TotpEnrollment represents a subject's authenticator-app enrollment. A
// subject has at most one. The enrollment is created pending (secret issued,
// nothing proven) and becomes active only after the subject echoes back a
// valid code. lastUsedStep is the replay watermark: a code for a time step at
// or below it is never accepted again.
type TotpEnrollment struct {
	id           uint
	subjectID    uint
	secret       string // base32, never exposed to clients after activation
	activatedAt  *time.Time
	lastUsedStep *int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewTotpEnrollment creates a pending enrollment for a subject.
func NewTotpEnrollment(subjectID uint, secret string) (*TotpEnrollment, error) {
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("secret is required")
	}

	now := time.Now().UTC()
	return &TotpEnrollment{
		subjectID: subjectID,
		secret:    secret,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructTotpEnrollment rebuilds an enrollment from persistence.
func ReconstructTotpEnrollment(
	id uint,
	subjectID uint,
	secret string,
	activatedAt *time.Time,
	lastUsedStep *int64,
	createdAt time.Time,
	updatedAt time.Time,
) (*TotpEnrollment, error) {
	if id == 0 {
		return nil, fmt.Errorf("enrollment ID cannot be zero")
	}
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}

	return &TotpEnrollment{
		id:           id,
		subjectID:    subjectID,
		secret:       secret,
		activatedAt:  activatedAt,
		lastUsedStep: lastUsedStep,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (e *TotpEnrollment) ID() uint                 { return e.id }
func (e *TotpEnrollment) SubjectID() uint          { return e.subjectID }
func (e *TotpEnrollment) Secret() string           { return e.secret }
func (e *TotpEnrollment) ActivatedAt() *time.Time  { return e.activatedAt }
func (e *TotpEnrollment) LastUsedStep() *int64     { return e.lastUsedStep }
func (e *TotpEnrollment) CreatedAt() time.Time     { return e.createdAt }
func (e *TotpEnrollment) UpdatedAt() time.Time     { return e.updatedAt }

// IsActive reports whether the enrollment completed activation.
func (e *TotpEnrollment) IsActive() bool {
	return e.activatedAt != nil
}

// SetID sets the internal ID (only for persistence layer use).
func (e *TotpEnrollment) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("enrollment ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("enrollment ID cannot be zero")
	}
	e.id = id
	return nil
}

// ReplacePendingSecret overwrites the secret of a pending enrollment and
// clears any stale watermark. An active enrollment cannot be overwritten;
// it must be disabled explicitly first.
func (e *TotpEnrollment) ReplacePendingSecret(secret string) error {
	if e.IsActive() {
		return fmt.Errorf("enrollment is already active")
	}
	if secret == "" {
		return fmt.Errorf("secret is required")
	}
	e.secret = secret
	e.lastUsedStep = nil
	e.updatedAt = time.Now().UTC()
	return nil
}

// Activate marks the enrollment active and records the time step of the code
// that proved it, so the same code cannot be replayed at first login.
func (e *TotpEnrollment) Activate(step int64) error {
	if e.IsActive() {
		return fmt.Errorf("enrollment is already active")
	}
	now := time.Now().UTC()
	e.activatedAt = &now
	e.lastUsedStep = &step
	e.updatedAt = now
	return nil
}

// AdvanceUsedStep moves the replay watermark forward. A step at or below the
// current watermark means the code (or an older one) was already consumed.
// Persistence implementations must apply the equivalent guard in a single
// conditional update; this method carries the rule for in-memory stores and
// tests.
func (e *TotpEnrollment) AdvanceUsedStep(step int64) error {
	if !e.IsActive() {
		return fmt.Errorf("enrollment is not active")
	}
	if e.lastUsedStep != nil && step <= *e.lastUsedStep {
		return fmt.Errorf("time step %d already consumed (watermark %d)", step, *e.lastUsedStep)
	}
	e.lastUsedStep = &step
	e.updatedAt = time.Now().UTC()
	return nil
}
