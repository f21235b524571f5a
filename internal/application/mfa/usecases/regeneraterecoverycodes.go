package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// RegenerateRecoveryCodesCommand represents the command to issue a fresh batch
type RegenerateRecoveryCodesCommand struct {
	SubjectID uint
	IPAddress string
	UserAgent string
}

// RegenerateRecoveryCodesResult carries the new plaintext batch, shown once
type RegenerateRecoveryCodesResult struct {
	RecoveryCodes []string
}

// RegenerateRecoveryCodesUseCase replaces the subject's recovery codes. The
// old batch, used and unused alike, stops working the moment the new one is
// committed.
type RegenerateRecoveryCodesUseCase struct {
	enrollments   mfa.TotpEnrollmentRepository
	credentials   mfa.WebAuthnCredentialRepository
	recoveryRepo  mfa.RecoveryCodeRepository
	recoveryCodes *auth.RecoveryCodeService
	recorder      *audit.Recorder
	logger        logger.Interface
}

// NewRegenerateRecoveryCodesUseCase creates a new RegenerateRecoveryCodesUseCase
func NewRegenerateRecoveryCodesUseCase(
	enrollments mfa.TotpEnrollmentRepository,
	credentials mfa.WebAuthnCredentialRepository,
	recoveryRepo mfa.RecoveryCodeRepository,
	recoveryCodes *auth.RecoveryCodeService,
	recorder *audit.Recorder,
	logger logger.Interface,
) *RegenerateRecoveryCodesUseCase {
	return &RegenerateRecoveryCodesUseCase{
		enrollments:   enrollments,
		credentials:   credentials,
		recoveryRepo:  recoveryRepo,
		recoveryCodes: recoveryCodes,
		recorder:      recorder,
		logger:        logger,
	}
}

// Execute replaces the subject's recovery code batch
func (uc *RegenerateRecoveryCodesUseCase) Execute(ctx context.Context, cmd RegenerateRecoveryCodesCommand) (*RegenerateRecoveryCodesResult, error) {
	enrolled, err := uc.hasSecondFactor(ctx, cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errors.NewNotEnrolledError()
	}

	codes, hashes, err := uc.recoveryCodes.GenerateBatch()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recovery codes: %w", err)
	}

	if err := uc.recoveryRepo.ReplaceBatch(ctx, cmd.SubjectID, hashes); err != nil {
		return nil, fmt.Errorf("failed to replace recovery codes: %w", err)
	}

	uc.recorder.Record(cmd.SubjectID, mfa.EventRecoveryCodesRenewed, nil, cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("recovery codes regenerated", "subject_id", cmd.SubjectID)

	return &RegenerateRecoveryCodesResult{RecoveryCodes: codes}, nil
}

func (uc *RegenerateRecoveryCodesUseCase) hasSecondFactor(ctx context.Context, subjectID uint) (bool, error) {
	enrollment, err := uc.enrollments.GetBySubjectID(ctx, subjectID)
	if err == nil && enrollment.IsActive() {
		return true, nil
	}
	if err != nil && !errors.IsNotFoundError(err) {
		return false, fmt.Errorf("failed to check TOTP enrollment: %w", err)
	}

	count, err := uc.credentials.CountBySubjectID(ctx, subjectID)
	if err != nil {
		return false, fmt.Errorf("failed to count credentials: %w", err)
	}
	return count > 0, nil
}
