package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// RevokeWebAuthnCredentialCommand represents the command to remove a credential
type RevokeWebAuthnCredentialCommand struct {
	SubjectID uint
	SID       string
	IPAddress string
	UserAgent string
}

// RevokeWebAuthnCredentialUseCase removes a subject's credential. Removing
// the last second factor also clears recovery codes, device trust, and the
// subject's MFA flag.
type RevokeWebAuthnCredentialUseCase struct {
	subjects       mfa.SubjectGateway
	credentials    mfa.WebAuthnCredentialRepository
	enrollments    mfa.TotpEnrollmentRepository
	recoveryCodes  mfa.RecoveryCodeRepository
	trustedDevices mfa.TrustedDeviceRepository
	recorder       *audit.Recorder
	logger         logger.Interface
}

// NewRevokeWebAuthnCredentialUseCase creates a new RevokeWebAuthnCredentialUseCase
func NewRevokeWebAuthnCredentialUseCase(
	subjects mfa.SubjectGateway,
	credentials mfa.WebAuthnCredentialRepository,
	enrollments mfa.TotpEnrollmentRepository,
	recoveryCodes mfa.RecoveryCodeRepository,
	trustedDevices mfa.TrustedDeviceRepository,
	recorder *audit.Recorder,
	logger logger.Interface,
) *RevokeWebAuthnCredentialUseCase {
	return &RevokeWebAuthnCredentialUseCase{
		subjects:       subjects,
		credentials:    credentials,
		enrollments:    enrollments,
		recoveryCodes:  recoveryCodes,
		trustedDevices: trustedDevices,
		recorder:       recorder,
		logger:         logger,
	}
}

// Execute removes the credential
func (uc *RevokeWebAuthnCredentialUseCase) Execute(ctx context.Context, cmd RevokeWebAuthnCredentialCommand) error {
	if err := uc.credentials.DeleteBySID(ctx, cmd.SubjectID, cmd.SID); err != nil {
		return err
	}

	remaining, err := uc.credentials.CountBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to count remaining credentials: %w", err)
	}

	if remaining == 0 && !uc.hasActiveTotp(ctx, cmd.SubjectID) {
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

	uc.recorder.Record(cmd.SubjectID, mfa.EventWebAuthnRevoked,
		map[string]string{"credential": cmd.SID},
		cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("credential revoked", "subject_id", cmd.SubjectID, "sid", cmd.SID)
	return nil
}

func (uc *RevokeWebAuthnCredentialUseCase) hasActiveTotp(ctx context.Context, subjectID uint) bool {
	enrollment, err := uc.enrollments.GetBySubjectID(ctx, subjectID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Warnw("failed to check TOTP enrollment", "subject_id", subjectID, "error", err)
		}
		return false
	}
	return enrollment.IsActive()
}
