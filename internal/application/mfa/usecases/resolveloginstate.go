package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// ResolveLoginStateCommand represents the command to initialize a session's
// second-factor state right after first-factor login
type ResolveLoginStateCommand struct {
	SessionID string
	SubjectID uint
}

// ResolveLoginStateResult reports the resulting state and the verification
// methods the subject can use
type ResolveLoginStateResult struct {
	State            mfa.SecondFactorState
	AvailableMethods []string
}

// ResolveLoginStateUseCase decides whether a freshly authenticated session
// needs a second factor. Subjects with MFA enabled land in the awaiting state;
// everyone else completes login immediately.
type ResolveLoginStateUseCase struct {
	sessions    mfa.SessionGateway
	subjects    mfa.SubjectGateway
	enrollments mfa.TotpEnrollmentRepository
	credentials mfa.WebAuthnCredentialRepository
	recovery    mfa.RecoveryCodeRepository
	logger      logger.Interface
}

// NewResolveLoginStateUseCase creates a new ResolveLoginStateUseCase
func NewResolveLoginStateUseCase(
	sessions mfa.SessionGateway,
	subjects mfa.SubjectGateway,
	enrollments mfa.TotpEnrollmentRepository,
	credentials mfa.WebAuthnCredentialRepository,
	recovery mfa.RecoveryCodeRepository,
	logger logger.Interface,
) *ResolveLoginStateUseCase {
	return &ResolveLoginStateUseCase{
		sessions:    sessions,
		subjects:    subjects,
		enrollments: enrollments,
		credentials: credentials,
		recovery:    recovery,
		logger:      logger,
	}
}

// Execute initializes the session's second-factor state
func (uc *ResolveLoginStateUseCase) Execute(ctx context.Context, cmd ResolveLoginStateCommand) (*ResolveLoginStateResult, error) {
	subject, err := uc.subjects.FindByID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subject: %w", err)
	}

	if !subject.MFAEnabled {
		if err := uc.sessions.Put(ctx, cmd.SessionID, cmd.SubjectID, mfa.StateNoSecondFactor); err != nil {
			return nil, fmt.Errorf("failed to store session state: %w", err)
		}
		return &ResolveLoginStateResult{State: mfa.StateNoSecondFactor}, nil
	}

	methods, err := uc.availableMethods(ctx, cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	// The flag says MFA is on but no usable factor remains. Fail closed and
	// log loudly rather than silently waving the login through.
	if len(methods) == 0 {
		uc.logger.Errorw("subject has MFA enabled but no usable second factor",
			"subject_id", cmd.SubjectID)
		return nil, errors.NewInternalError("second factor configuration is inconsistent")
	}

	if err := uc.sessions.Put(ctx, cmd.SessionID, cmd.SubjectID, mfa.StateAwaitingSecondFactor); err != nil {
		return nil, fmt.Errorf("failed to store session state: %w", err)
	}

	uc.logger.Debugw("session awaiting second factor",
		"subject_id", cmd.SubjectID, "methods", methods)

	return &ResolveLoginStateResult{
		State:            mfa.StateAwaitingSecondFactor,
		AvailableMethods: methods,
	}, nil
}

func (uc *ResolveLoginStateUseCase) availableMethods(ctx context.Context, subjectID uint) ([]string, error) {
	methods := make([]string, 0, 3)

	enrollment, err := uc.enrollments.GetBySubjectID(ctx, subjectID)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check TOTP enrollment: %w", err)
	}
	if enrollment != nil && enrollment.IsActive() {
		methods = append(methods, constants.MethodTotp)
	}

	credentialCount, err := uc.credentials.CountBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count credentials: %w", err)
	}
	if credentialCount > 0 {
		methods = append(methods, constants.MethodWebAuthn)
	}

	remaining, err := uc.recovery.CountUnusedBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count recovery codes: %w", err)
	}
	if remaining > 0 {
		methods = append(methods, constants.MethodRecoveryCode)
	}

	return methods, nil
}
