package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderUserAgent     = "User-Agent"

	// Context keys
	ContextKeySubjectID         = "subject_id"
	ContextKeySessionID         = "session_id"
	ContextKeyRequestID         = "request_id"
	ContextKeySecondFactorState = "second_factor_state"

	// Cookie and header names for second-factor plumbing
	CookieSessionID     = "inkwell_session"
	CookieTrustedDevice = "inkwell_device"

	// Database table names
	TableSubjects            = "subjects"
	TableTotpEnrollments     = "totp_enrollments"
	TableWebAuthnCredentials = "webauthn_credentials"
	TableRecoveryCodes       = "recovery_codes"
	TableTrustedDevices      = "trusted_devices"
	TableSecurityEvents      = "security_events"

	// Verification method names, used in rate limit keys and event metadata
	MethodTotp         = "totp"
	MethodWebAuthn     = "webauthn"
	MethodRecoveryCode = "recovery_code"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgConflict            = "Resource already exists"
)
