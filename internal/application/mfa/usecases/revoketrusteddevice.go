package usecases

import (
	"context"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// RevokeTrustedDeviceCommand represents the command to revoke one device
type RevokeTrustedDeviceCommand struct {
	SubjectID uint
	SID       string
	IPAddress string
	UserAgent string
}

// RevokeTrustedDeviceUseCase revokes a single remembered device
type RevokeTrustedDeviceUseCase struct {
	devices  mfa.TrustedDeviceRepository
	recorder *audit.Recorder
	logger   logger.Interface
}

// NewRevokeTrustedDeviceUseCase creates a new RevokeTrustedDeviceUseCase
func NewRevokeTrustedDeviceUseCase(
	devices mfa.TrustedDeviceRepository,
	recorder *audit.Recorder,
	logger logger.Interface,
) *RevokeTrustedDeviceUseCase {
	return &RevokeTrustedDeviceUseCase{
		devices:  devices,
		recorder: recorder,
		logger:   logger,
	}
}

// Execute revokes the device
func (uc *RevokeTrustedDeviceUseCase) Execute(ctx context.Context, cmd RevokeTrustedDeviceCommand) error {
	if err := uc.devices.DeleteBySID(ctx, cmd.SubjectID, cmd.SID); err != nil {
		return err
	}

	uc.recorder.Record(cmd.SubjectID, mfa.EventDeviceRevoked,
		map[string]string{"device": cmd.SID},
		cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("trusted device revoked", "subject_id", cmd.SubjectID, "sid", cmd.SID)
	return nil
}
