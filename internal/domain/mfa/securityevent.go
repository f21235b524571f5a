package mfa

import (
	"fmt"
	"time"
)

// SecurityEventKind identifies a second-factor security event.
type SecurityEventKind string

const (
	EventTotpEnrolled           SecurityEventKind = "totp.enrolled"
	EventTotpActivated          SecurityEventKind = "totp.activated"
	EventTotpVerified           SecurityEventKind = "totp.verified"
	EventTotpDisabled           SecurityEventKind = "totp.disabled"
	EventTotpReplayDetected     SecurityEventKind = "totp.replay_detected"
	EventWebAuthnRegistered     SecurityEventKind = "webauthn.registered"
	EventWebAuthnVerified       SecurityEventKind = "webauthn.verified"
	EventWebAuthnRevoked        SecurityEventKind = "webauthn.revoked"
	EventWebAuthnCloneSuspected SecurityEventKind = "webauthn.clone_suspected"
	EventRecoveryCodeConsumed   SecurityEventKind = "recovery.code_consumed"
	EventRecoveryCodesRenewed   SecurityEventKind = "recovery.codes_regenerated"
	EventDeviceTrusted          SecurityEventKind = "device.trusted"
	EventDeviceRevoked          SecurityEventKind = "device.revoked"
	EventRateLimited            SecurityEventKind = "verification.rate_limited"
	EventVerificationFailed     SecurityEventKind = "verification.failed"
)

// SecurityEvent is an append-only record of a security-relevant action on a
// subject's second-factor setup.
type SecurityEvent struct {
	id        uint
	subjectID uint
	kind      SecurityEventKind
	metadata  map[string]string
	ipAddress string
	userAgent string
	createdAt time.Time
}

// NewSecurityEvent creates an event occurring now.
func NewSecurityEvent(subjectID uint, kind SecurityEventKind, metadata map[string]string, ipAddress, userAgent string) (*SecurityEvent, error) {
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}
	if kind == "" {
		return nil, fmt.Errorf("event kind is required")
	}

	return &SecurityEvent{
		subjectID: subjectID,
		kind:      kind,
		metadata:  metadata,
		ipAddress: ipAddress,
		userAgent: userAgent,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructSecurityEvent rebuilds an event from persistence.
func ReconstructSecurityEvent(
	id uint,
	subjectID uint,
	kind SecurityEventKind,
	metadata map[string]string,
	ipAddress string,
	userAgent string,
	createdAt time.Time,
) (*SecurityEvent, error) {
	if id == 0 {
		return nil, fmt.Errorf("event ID cannot be zero")
	}
	return &SecurityEvent{
		id:        id,
		subjectID: subjectID,
		kind:      kind,
		metadata:  metadata,
		ipAddress: ipAddress,
		userAgent: userAgent,
		createdAt: createdAt,
	}, nil
}

func (e *SecurityEvent) ID() uint                    { return e.id }
func (e *SecurityEvent) SubjectID() uint             { return e.subjectID }
func (e *SecurityEvent) Kind() SecurityEventKind     { return e.kind }
func (e *SecurityEvent) Metadata() map[string]string { return e.metadata }
func (e *SecurityEvent) IPAddress() string           { return e.ipAddress }
func (e *SecurityEvent) UserAgent() string           { return e.userAgent }
func (e *SecurityEvent) CreatedAt() time.Time        { return e.createdAt }
