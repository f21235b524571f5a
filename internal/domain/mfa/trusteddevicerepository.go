package mfa

import (
	"context"
	"time"
)

// TrustedDeviceRepository defines the interface for trusted device data operations
type TrustedDeviceRepository interface {
	// Create creates a new trusted device record
	Create(ctx context.Context, device *TrustedDevice) error

	// GetByTokenHash retrieves a device by its token hash
	GetByTokenHash(ctx context.Context, tokenHash string) (*TrustedDevice, error)

	// GetBySID retrieves a device by external SID (tdv_xxx), scoped to the subject
	GetBySID(ctx context.Context, subjectID uint, sid string) (*TrustedDevice, error)

	// GetBySubjectID retrieves all of the subject's device records, including
	// expired ones not yet purged
	GetBySubjectID(ctx context.Context, subjectID uint) ([]*TrustedDevice, error)

	// UpdateLastSeen records that the device token was accepted
	UpdateLastSeen(ctx context.Context, id uint, seenAt time.Time) error

	// DeleteBySID revokes a single device, scoped to the subject
	DeleteBySID(ctx context.Context, subjectID uint, sid string) error

	// DeleteBySubjectID revokes all of the subject's devices and returns how
	// many were removed
	DeleteBySubjectID(ctx context.Context, subjectID uint) (int64, error)

	// DeleteExpired purges records whose trust lapsed before the cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
