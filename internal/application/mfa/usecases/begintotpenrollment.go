// Package usecases contains the application services for the second-factor
// subsystem: enrollment, verification, recovery, device trust, and the
// session state machine.
package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// BeginTotpEnrollmentCommand represents the command to start TOTP enrollment
type BeginTotpEnrollmentCommand struct {
	SubjectID uint
}

// BeginTotpEnrollmentResult carries the issued secret for the authenticator app
type BeginTotpEnrollmentResult struct {
	Secret string
	URI    string
}

// BeginTotpEnrollmentUseCase issues a pending TOTP secret. Re-running while
// the enrollment is still pending replaces the secret; an active enrollment
// must be disabled before it can be re-initialized.
type BeginTotpEnrollmentUseCase struct {
	subjects    mfa.SubjectGateway
	enrollments mfa.TotpEnrollmentRepository
	totpService *auth.TotpService
	logger      logger.Interface
}

// NewBeginTotpEnrollmentUseCase creates a new BeginTotpEnrollmentUseCase
func NewBeginTotpEnrollmentUseCase(
	subjects mfa.SubjectGateway,
	enrollments mfa.TotpEnrollmentRepository,
	totpService *auth.TotpService,
	logger logger.Interface,
) *BeginTotpEnrollmentUseCase {
	return &BeginTotpEnrollmentUseCase{
		subjects:    subjects,
		enrollments: enrollments,
		totpService: totpService,
		logger:      logger,
	}
}

// Execute issues a pending secret for the subject
func (uc *BeginTotpEnrollmentUseCase) Execute(ctx context.Context, cmd BeginTotpEnrollmentCommand) (*BeginTotpEnrollmentResult, error) {
	subject, err := uc.subjects.FindByID(ctx, cmd.SubjectID)
	if err != nil {
		uc.logger.Errorw("failed to get subject", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	key, err := uc.totpService.GenerateSecret(subject.Email)
	if err != nil {
		uc.logger.Errorw("failed to generate TOTP secret", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	existing, err := uc.enrollments.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}

	switch {
	case existing == nil:
		enrollment, err := mfa.NewTotpEnrollment(cmd.SubjectID, key.Secret)
		if err != nil {
			return nil, fmt.Errorf("failed to build enrollment: %w", err)
		}
		if err := uc.enrollments.Create(ctx, enrollment); err != nil {
			return nil, fmt.Errorf("failed to create enrollment: %w", err)
		}

	case existing.IsActive():
		return nil, errors.NewAlreadyEnrolledError()

	default:
		// Pending enrollment: the subject restarted setup, issue a fresh secret.
		if err := existing.ReplacePendingSecret(key.Secret); err != nil {
			return nil, fmt.Errorf("failed to replace pending secret: %w", err)
		}
		if err := uc.enrollments.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update enrollment: %w", err)
		}
	}

	uc.logger.Infow("TOTP enrollment started", "subject_id", cmd.SubjectID)

	return &BeginTotpEnrollmentResult{
		Secret: key.Secret,
		URI:    key.URI,
	}, nil
}
