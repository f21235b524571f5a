package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// ListTrustedDevicesCommand represents the command to list a subject's trusted devices
type ListTrustedDevicesCommand struct {
	SubjectID uint
}

// ListTrustedDevicesResult carries the client-facing device list
type ListTrustedDevicesResult struct {
	Devices []mfa.TrustedDeviceDisplayInfo
}

// ListTrustedDevicesUseCase lists the subject's remembered devices
type ListTrustedDevicesUseCase struct {
	devices mfa.TrustedDeviceRepository
	logger  logger.Interface
}

// NewListTrustedDevicesUseCase creates a new ListTrustedDevicesUseCase
func NewListTrustedDevicesUseCase(
	devices mfa.TrustedDeviceRepository,
	logger logger.Interface,
) *ListTrustedDevicesUseCase {
	return &ListTrustedDevicesUseCase{
		devices: devices,
		logger:  logger,
	}
}

// Execute lists the subject's trusted devices
func (uc *ListTrustedDevicesUseCase) Execute(ctx context.Context, cmd ListTrustedDevicesCommand) (*ListTrustedDevicesResult, error) {
	devices, err := uc.devices.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		uc.logger.Errorw("failed to list trusted devices", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to list trusted devices: %w", err)
	}

	infos := make([]mfa.TrustedDeviceDisplayInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, d.GetDisplayInfo())
	}

	return &ListTrustedDevicesResult{Devices: infos}, nil
}
