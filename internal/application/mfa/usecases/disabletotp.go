package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// DisableTotpCommand represents the command to remove a TOTP enrollment
type DisableTotpCommand struct {
	SubjectID uint
	IPAddress string
	UserAgent string
}

// DisableTotpUseCase removes the subject's TOTP enrollment. When no other
// second factor remains, recovery codes and device trust go with it and the
// subject's MFA flag is cleared.
type DisableTotpUseCase struct {
	subjects       mfa.SubjectGateway
	enrollments    mfa.TotpEnrollmentRepository
	credentials    mfa.WebAuthnCredentialRepository
	recoveryCodes  mfa.RecoveryCodeRepository
	trustedDevices mfa.TrustedDeviceRepository
	recorder       *audit.Recorder
	logger         logger.Interface
}

// NewDisableTotpUseCase creates a new DisableTotpUseCase
func NewDisableTotpUseCase(
	subjects mfa.SubjectGateway,
	enrollments mfa.TotpEnrollmentRepository,
	credentials mfa.WebAuthnCredentialRepository,
	recoveryCodes mfa.RecoveryCodeRepository,
	trustedDevices mfa.TrustedDeviceRepository,
	recorder *audit.Recorder,
	logger logger.Interface,
) *DisableTotpUseCase {
	return &DisableTotpUseCase{
		subjects:       subjects,
		enrollments:    enrollments,
		credentials:    credentials,
		recoveryCodes:  recoveryCodes,
		trustedDevices: trustedDevices,
		recorder:       recorder,
		logger:         logger,
	}
}

// Execute removes the subject's enrollment
func (uc *DisableTotpUseCase) Execute(ctx context.Context, cmd DisableTotpCommand) error {
	if err := uc.enrollments.DeleteBySubjectID(ctx, cmd.SubjectID); err != nil {
		if errors.IsNotFoundError(err) {
			return errors.NewNotEnrolledError()
		}
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	credentialCount, err := uc.credentials.CountBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to count credentials: %w", err)
	}

	if credentialCount == 0 {
		// Last second factor is gone: recovery codes and remembered devices
		// would otherwise bypass a factor that no longer exists.
		if err := uc.recoveryCodes.DeleteBySubjectID(ctx, cmd.SubjectID); err != nil {
			return fmt.Errorf("failed to delete recovery codes: %w", err)
		}
		if _, err := uc.trustedDevices.DeleteBySubjectID(ctx, cmd.SubjectID); err != nil {
			return fmt.Errorf("failed to revoke trusted devices: %w", err)
		}
		if err := uc.subjects.SetMFAEnabled(ctx, cmd.SubjectID, false); err != nil {
			return fmt.Errorf("failed to clear MFA flag: %w", err)
		}
	}

	uc.recorder.Record(cmd.SubjectID, mfa.EventTotpDisabled, nil, cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("TOTP enrollment disabled", "subject_id", cmd.SubjectID)
	return nil
}
