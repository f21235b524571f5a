package errors

import (
	stderrors "errors"
	"net/http"
)

// MFA-specific error types
const (
	ErrorTypeNotEnrolled          ErrorType = "not_enrolled"
	ErrorTypeAlreadyEnrolled      ErrorType = "already_enrolled"
	ErrorTypeVerificationFailed   ErrorType = "verification_failed"
	ErrorTypeReplayDetected       ErrorType = "replay_detected"
	ErrorTypeRateLimitExceeded    ErrorType = "rate_limit_exceeded"
	ErrorTypeCredentialNotFound   ErrorType = "credential_not_found"
	ErrorTypeSecondFactorRequired ErrorType = "second_factor_required"
)

// MfaError represents second-factor verification errors with security context.
// ShouldLog controls whether the failure is worth error-level logging (wrong
// codes are expected and stay quiet); SecurityEvent marks failures that must
// be escalated to the security activity log beyond the normal failure record.
type MfaError struct {
	*AppError
	ShouldLog     bool
	SecurityEvent bool
}

// Error implements the error interface
func (e *MfaError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *MfaError) Unwrap() error {
	return e.AppError
}

// NewNotEnrolledError is returned when an operation requires an enrollment
// that does not exist (or is still pending when an active one is required).
func NewNotEnrolledError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeNotEnrolled,
			Message: "Two-factor authentication is not set up",
			Code:    http.StatusBadRequest,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewAlreadyEnrolledError is returned when enrollment is attempted for a
// subject whose enrollment is already active.
func NewAlreadyEnrolledError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeAlreadyEnrolled,
			Message: "Two-factor authentication is already enabled",
			Code:    http.StatusConflict,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewVerificationFailedError covers every ordinary wrong-code and
// wrong-signature case. The message deliberately does not reveal whether a
// code was malformed, wrong, or already consumed.
func NewVerificationFailedError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeVerificationFailed,
			Message: "Invalid verification code",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false,
		SecurityEvent: true, // counts toward brute-force detection
	}
}

// NewReplayDetectedError marks reuse of a one-time credential: a TOTP step
// at or below the stored watermark, or a WebAuthn signature counter that did
// not increase. Distinct from VerificationFailed so callers can escalate.
func NewReplayDetectedError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeReplayDetected,
			Message: "Invalid verification code",
			Code:    http.StatusUnauthorized,
			Details: "one-time credential was already used",
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewRateLimitExceededError is returned when the attempt limiter denies a
// verification attempt.
func NewRateLimitExceededError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeRateLimitExceeded,
			Message: "Too many attempts, please try again later",
			Code:    http.StatusTooManyRequests,
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewCredentialNotFoundError is returned when acting on a credential or
// trusted device that does not exist or belongs to another subject.
func NewCredentialNotFoundError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeCredentialNotFound,
			Message: "Credential not found",
			Code:    http.StatusNotFound,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewSecondFactorRequiredError guards sensitive operations: the session has
// not completed its second-factor step.
func NewSecondFactorRequiredError() *MfaError {
	return &MfaError{
		AppError: &AppError{
			Type:    ErrorTypeSecondFactorRequired,
			Message: "Second factor verification required",
			Code:    http.StatusForbidden,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// IsMfaError checks if the error is an MfaError (supports wrapped errors)
func IsMfaError(err error) bool {
	var mfaErr *MfaError
	return stderrors.As(err, &mfaErr)
}

// GetMfaError extracts MfaError from the error chain
func GetMfaError(err error) *MfaError {
	var mfaErr *MfaError
	if stderrors.As(err, &mfaErr) {
		return mfaErr
	}
	return nil
}

// IsReplayDetected reports whether the error marks one-time credential reuse
func IsReplayDetected(err error) bool {
	mfaErr := GetMfaError(err)
	return mfaErr != nil && mfaErr.Type == ErrorTypeReplayDetected
}

// IsRateLimitExceeded reports whether the error came from the attempt limiter
func IsRateLimitExceeded(err error) bool {
	mfaErr := GetMfaError(err)
	return mfaErr != nil && mfaErr.Type == ErrorTypeRateLimitExceeded
}

// IsVerificationFailed reports whether the error is an ordinary failed check
func IsVerificationFailed(err error) bool {
	mfaErr := GetMfaError(err)
	return mfaErr != nil && mfaErr.Type == ErrorTypeVerificationFailed
}

// IsSecurityEvent returns true if the error should be tracked in the
// security activity log
func IsSecurityEvent(err error) bool {
	if mfaErr := GetMfaError(err); mfaErr != nil {
		return mfaErr.SecurityEvent
	}
	return false
}

// ShouldLogMfaError returns true if the error deserves error-level logging;
// expected failures (wrong codes) stay out of the error log.
func ShouldLogMfaError(err error) bool {
	if mfaErr := GetMfaError(err); mfaErr != nil {
		return mfaErr.ShouldLog
	}
	return true
}
