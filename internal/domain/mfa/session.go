package mfa

import "context"

// SecondFactorState is the per-session verification state.
type SecondFactorState string

const (
	// StateNoSecondFactor means the subject has no active second factor;
	// first-factor login completes the session.
	StateNoSecondFactor SecondFactorState = "no_second_factor"
	// StateAwaitingSecondFactor means first-factor login succeeded and a
	// second-factor proof is still required.
	StateAwaitingSecondFactor SecondFactorState = "awaiting_second_factor"
	// StateVerified means the second factor was proven for this session.
	StateVerified SecondFactorState = "verified"
)

// IsValid reports whether s is a known state.
func (s SecondFactorState) IsValid() bool {
	switch s {
	case StateNoSecondFactor, StateAwaitingSecondFactor, StateVerified:
		return true
	}
	return false
}

// SessionView is the second-factor view of a login session.
type SessionView struct {
	SubjectID uint
	State     SecondFactorState
}

// SessionGateway is the contract with the surrounding identity provider's
// session store. The second-factor subsystem only reads and advances the
// verification state; session creation and teardown stay outside.
type SessionGateway interface {
	// Get returns the session view, or a not-found error if the session does
	// not exist or has expired.
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	// Put records the session's subject and second-factor state.
	Put(ctx context.Context, sessionID string, subjectID uint, state SecondFactorState) error
	// SetState advances an existing session's second-factor state.
	SetState(ctx context.Context, sessionID string, state SecondFactorState) error
	// Delete removes the session state.
	Delete(ctx context.Context, sessionID string) error
}
