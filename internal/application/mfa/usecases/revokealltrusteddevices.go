package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// RevokeAllTrustedDevicesCommand represents the command to revoke every device
type RevokeAllTrustedDevicesCommand struct {
	SubjectID uint
	IPAddress string
	UserAgent string
}

// RevokeAllTrustedDevicesResult reports how many devices were revoked
type RevokeAllTrustedDevicesResult struct {
	Revoked int64
}

// RevokeAllTrustedDevicesUseCase revokes all of the subject's remembered devices
type RevokeAllTrustedDevicesUseCase struct {
	devices  mfa.TrustedDeviceRepository
	recorder *audit.Recorder
	logger   logger.Interface
}

// NewRevokeAllTrustedDevicesUseCase creates a new RevokeAllTrustedDevicesUseCase
func NewRevokeAllTrustedDevicesUseCase(
	devices mfa.TrustedDeviceRepository,
	recorder *audit.Recorder,
	logger logger.Interface,
) *RevokeAllTrustedDevicesUseCase {
	return &RevokeAllTrustedDevicesUseCase{
		devices:  devices,
		recorder: recorder,
		logger:   logger,
	}
}

// Execute revokes every trusted device for the subject
func (uc *RevokeAllTrustedDevicesUseCase) Execute(ctx context.Context, cmd RevokeAllTrustedDevicesCommand) (*RevokeAllTrustedDevicesResult, error) {
	revoked, err := uc.devices.DeleteBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke trusted devices: %w", err)
	}

	if revoked > 0 {
		uc.recorder.Record(cmd.SubjectID, mfa.EventDeviceRevoked,
			map[string]string{"count": fmt.Sprintf("%d", revoked)},
			cmd.IPAddress, cmd.UserAgent)
	}

	uc.logger.Infow("all trusted devices revoked", "subject_id", cmd.SubjectID, "count", revoked)

	return &RevokeAllTrustedDevicesResult{Revoked: revoked}, nil
}
