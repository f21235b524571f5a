package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// MfaStatusCommand represents the command to summarize a subject's MFA setup
type MfaStatusCommand struct {
	SubjectID uint
}

// MfaStatusResult is the settings-page summary of the subject's second factors
type MfaStatusResult struct {
	Enabled                bool
	TotpActive             bool
	TotpPending            bool
	Credentials            []mfa.WebAuthnCredentialDisplayInfo
	RecoveryCodesRemaining int64
	TrustedDeviceCount     int
}

// MfaStatusUseCase summarizes the subject's second-factor configuration
type MfaStatusUseCase struct {
	subjects    mfa.SubjectGateway
	enrollments mfa.TotpEnrollmentRepository
	credentials mfa.WebAuthnCredentialRepository
	recovery    mfa.RecoveryCodeRepository
	devices     mfa.TrustedDeviceRepository
	logger      logger.Interface
}

// NewMfaStatusUseCase creates a new MfaStatusUseCase
func NewMfaStatusUseCase(
	subjects mfa.SubjectGateway,
	enrollments mfa.TotpEnrollmentRepository,
	credentials mfa.WebAuthnCredentialRepository,
	recovery mfa.RecoveryCodeRepository,
	devices mfa.TrustedDeviceRepository,
	logger logger.Interface,
) *MfaStatusUseCase {
	return &MfaStatusUseCase{
		subjects:    subjects,
		enrollments: enrollments,
		credentials: credentials,
		recovery:    recovery,
		devices:     devices,
		logger:      logger,
	}
}

// Execute builds the second-factor status summary
func (uc *MfaStatusUseCase) Execute(ctx context.Context, cmd MfaStatusCommand) (*MfaStatusResult, error) {
	subject, err := uc.subjects.FindByID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subject: %w", err)
	}

	result := &MfaStatusResult{Enabled: subject.MFAEnabled}

	enrollment, err := uc.enrollments.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get TOTP enrollment: %w", err)
	}
	if enrollment != nil {
		result.TotpActive = enrollment.IsActive()
		result.TotpPending = !enrollment.IsActive()
	}

	credentials, err := uc.credentials.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	result.Credentials = make([]mfa.WebAuthnCredentialDisplayInfo, 0, len(credentials))
	for _, c := range credentials {
		result.Credentials = append(result.Credentials, c.GetDisplayInfo())
	}

	remaining, err := uc.recovery.CountUnusedBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count recovery codes: %w", err)
	}
	result.RecoveryCodesRemaining = remaining

	deviceList, err := uc.devices.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted devices: %w", err)
	}
	result.TrustedDeviceCount = len(deviceList)

	return result, nil
}
