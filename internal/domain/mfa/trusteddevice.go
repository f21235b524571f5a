package mfa

import (
	"fmt"
	"time"
)

// TrustedDevice represents a browser or device the subject chose to remember
// after a successful second-factor verification. Holding a valid device token
// lets the subject skip the second factor until the trust expires or is
// revoked. Only the token hash is stored.
type TrustedDevice struct {
	id         uint
	sid        string // external API identifier (tdv_xxx)
	subjectID  uint
	tokenHash  string
	deviceName string
	userAgent  string
	ipAddress  string
	lastSeenAt *time.Time
	expiresAt  time.Time
	createdAt  time.Time
}

// NewTrustedDevice creates a device trust record from a freshly issued token
// hash.
func NewTrustedDevice(
	subjectID uint,
	tokenHash string,
	deviceName string,
	userAgent string,
	ipAddress string,
	expiresAt time.Time,
	sidGenerator func() (string, error),
) (*TrustedDevice, error) {
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}
	if tokenHash == "" {
		return nil, fmt.Errorf("token hash is required")
	}
	if expiresAt.IsZero() {
		return nil, fmt.Errorf("expiry is required")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	return &TrustedDevice{
		sid:        sid,
		subjectID:  subjectID,
		tokenHash:  tokenHash,
		deviceName: deviceName,
		userAgent:  userAgent,
		ipAddress:  ipAddress,
		expiresAt:  expiresAt,
		createdAt:  time.Now().UTC(),
	}, nil
}

// ReconstructTrustedDevice rebuilds a trusted device from persistence.
func ReconstructTrustedDevice(
	id uint,
	sid string,
	subjectID uint,
	tokenHash string,
	deviceName string,
	userAgent string,
	ipAddress string,
	lastSeenAt *time.Time,
	expiresAt time.Time,
	createdAt time.Time,
) (*TrustedDevice, error) {
	if id == 0 {
		return nil, fmt.Errorf("trusted device ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("trusted device SID is required")
	}

	return &TrustedDevice{
		id:         id,
		sid:        sid,
		subjectID:  subjectID,
		tokenHash:  tokenHash,
		deviceName: deviceName,
		userAgent:  userAgent,
		ipAddress:  ipAddress,
		lastSeenAt: lastSeenAt,
		expiresAt:  expiresAt,
		createdAt:  createdAt,
	}, nil
}

func (d *TrustedDevice) ID() uint               { return d.id }
func (d *TrustedDevice) SID() string            { return d.sid }
func (d *TrustedDevice) SubjectID() uint        { return d.subjectID }
func (d *TrustedDevice) TokenHash() string      { return d.tokenHash }
func (d *TrustedDevice) DeviceName() string     { return d.deviceName }
func (d *TrustedDevice) UserAgent() string      { return d.userAgent }
func (d *TrustedDevice) IPAddress() string      { return d.ipAddress }
func (d *TrustedDevice) LastSeenAt() *time.Time { return d.lastSeenAt }
func (d *TrustedDevice) ExpiresAt() time.Time   { return d.expiresAt }
func (d *TrustedDevice) CreatedAt() time.Time   { return d.createdAt }

// SetID sets the internal ID (only for persistence layer use).
func (d *TrustedDevice) SetID(id uint) error {
	if d.id != 0 {
		return fmt.Errorf("trusted device ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("trusted device ID cannot be zero")
	}
	d.id = id
	return nil
}

// IsExpired reports whether the trust lapsed at the given instant.
func (d *TrustedDevice) IsExpired(now time.Time) bool {
	return !now.Before(d.expiresAt)
}

// Touch records that the device token was presented and accepted.
func (d *TrustedDevice) Touch(now time.Time) {
	t := now.UTC()
	d.lastSeenAt = &t
}

// TrustedDeviceDisplayInfo is the client-facing projection.
type TrustedDeviceDisplayInfo struct {
	ID         string     `json:"id"`
	DeviceName string     `json:"device_name"`
	UserAgent  string     `json:"user_agent"`
	IPAddress  string     `json:"ip_address"`
	LastSeenAt *time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GetDisplayInfo returns device information for display.
func (d *TrustedDevice) GetDisplayInfo() TrustedDeviceDisplayInfo {
	return TrustedDeviceDisplayInfo{
		ID:         d.sid,
		DeviceName: d.deviceName,
		UserAgent:  d.userAgent,
		IPAddress:  d.ipAddress,
		LastSeenAt: d.lastSeenAt,
		ExpiresAt:  d.expiresAt,
		CreatedAt:  d.createdAt,
	}
}
