package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// ActivateTotpCommand represents the command to activate a pending enrollment
type ActivateTotpCommand struct {
	SubjectID uint
	Code      string
	IPAddress string
	UserAgent string
}

// ActivateTotpResult carries the one-time recovery code batch
type ActivateTotpResult struct {
	RecoveryCodes []string
}

// ActivateTotpUseCase proves a pending enrollment with a first valid code.
// Activation and the recovery code batch are committed in one transaction;
// the proving step becomes the initial replay watermark.
type ActivateTotpUseCase struct {
	subjects      mfa.SubjectGateway
	enrollments   mfa.TotpEnrollmentRepository
	totpService   *auth.TotpService
	recoveryCodes *auth.RecoveryCodeService
	recorder      *audit.Recorder
	clock         func() time.Time
	logger        logger.Interface
}

// NewActivateTotpUseCase creates a new ActivateTotpUseCase
func NewActivateTotpUseCase(
	subjects mfa.SubjectGateway,
	enrollments mfa.TotpEnrollmentRepository,
	totpService *auth.TotpService,
	recoveryCodes *auth.RecoveryCodeService,
	recorder *audit.Recorder,
	clock func() time.Time,
	logger logger.Interface,
) *ActivateTotpUseCase {
	return &ActivateTotpUseCase{
		subjects:      subjects,
		enrollments:   enrollments,
		totpService:   totpService,
		recoveryCodes: recoveryCodes,
		recorder:      recorder,
		clock:         clock,
		logger:        logger,
	}
}

// Execute activates the subject's pending enrollment
func (uc *ActivateTotpUseCase) Execute(ctx context.Context, cmd ActivateTotpCommand) (*ActivateTotpResult, error) {
	enrollment, err := uc.enrollments.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewNotEnrolledError()
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	if enrollment.IsActive() {
		return nil, errors.NewAlreadyEnrolledError()
	}

	step, ok, err := uc.totpService.ValidateCode(enrollment.Secret(), cmd.Code, uc.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to validate code: %w", err)
	}
	if !ok {
		uc.recorder.Record(cmd.SubjectID, mfa.EventVerificationFailed,
			map[string]string{"method": "totp", "phase": "activation"},
			cmd.IPAddress, cmd.UserAgent)
		return nil, errors.NewVerificationFailedError()
	}

	codes, hashes, err := uc.recoveryCodes.GenerateBatch()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recovery codes: %w", err)
	}

	if err := uc.enrollments.Activate(ctx, cmd.SubjectID, step, hashes); err != nil {
		uc.logger.Errorw("failed to activate enrollment", "subject_id", cmd.SubjectID, "error", err)
		return nil, err
	}

	if err := uc.subjects.SetMFAEnabled(ctx, cmd.SubjectID, true); err != nil {
		// The enrollment is committed, so surface the flag failure loudly
		// instead of leaving the account half-configured in silence.
		uc.logger.Errorw("failed to enable MFA flag", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to enable MFA flag: %w", err)
	}

	uc.recorder.Record(cmd.SubjectID, mfa.EventTotpActivated, nil, cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("TOTP enrollment activated", "subject_id", cmd.SubjectID)

	return &ActivateTotpResult{RecoveryCodes: codes}, nil
}
