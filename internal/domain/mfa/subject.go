package mfa

import "context"

// Subject is the second-factor view of an account in the surrounding identity
// provider. The subsystem never owns accounts; it only needs a stable ID, a
// display name for authenticator labels, and the MFA-enabled flag.
type Subject struct {
	ID          uint
	Email       string
	DisplayName string
	MFAEnabled  bool
}

// SubjectGateway is the contract with the surrounding identity provider's
// account store.
type SubjectGateway interface {
	// FindByID returns the subject, or a not-found error.
	FindByID(ctx context.Context, id uint) (*Subject, error)
	// SetMFAEnabled flips the subject's MFA flag. The flag drives whether
	// first-factor login lands sessions in the awaiting state.
	SetMFAEnabled(ctx context.Context, id uint, enabled bool) error
}
