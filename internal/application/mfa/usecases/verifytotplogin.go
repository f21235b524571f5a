package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/ratelimit"
	sharedConfig "github.com/inkwell-press/inkwell/internal/shared/config"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// VerifyTotpLoginCommand represents the command to complete login with a TOTP code
type VerifyTotpLoginCommand struct {
	SessionID string
	Code      string
	IPAddress string
	UserAgent string
}

// VerifyTotpLoginResult reports the session state after verification
type VerifyTotpLoginResult struct {
	SubjectID uint
	State     mfa.SecondFactorState
}

// VerifyTotpLoginUseCase verifies a TOTP code for a session awaiting its
// second factor. Each accepted code advances the replay watermark, so a code
// verifies at most once even under concurrent submission.
type VerifyTotpLoginUseCase struct {
	sessions    mfa.SessionGateway
	enrollments mfa.TotpEnrollmentRepository
	totpService *auth.TotpService
	limiter     ratelimit.RateLimiter
	limits      sharedConfig.RateLimitConfig
	recorder    *audit.Recorder
	clock       func() time.Time
	logger      logger.Interface
}

// NewVerifyTotpLoginUseCase creates a new VerifyTotpLoginUseCase
func NewVerifyTotpLoginUseCase(
	sessions mfa.SessionGateway,
	enrollments mfa.TotpEnrollmentRepository,
	totpService *auth.TotpService,
	limiter ratelimit.RateLimiter,
	limits sharedConfig.RateLimitConfig,
	recorder *audit.Recorder,
	clock func() time.Time,
	logger logger.Interface,
) *VerifyTotpLoginUseCase {
	return &VerifyTotpLoginUseCase{
		sessions:    sessions,
		enrollments: enrollments,
		totpService: totpService,
		limiter:     limiter,
		limits:      limits,
		recorder:    recorder,
		clock:       clock,
		logger:      logger,
	}
}

// Execute verifies the code and advances the session to verified
func (uc *VerifyTotpLoginUseCase) Execute(ctx context.Context, cmd VerifyTotpLoginCommand) (*VerifyTotpLoginResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	switch session.State {
	case mfa.StateVerified:
		// Already verified: repeating the step is a no-op, not an error.
		return &VerifyTotpLoginResult{SubjectID: session.SubjectID, State: session.State}, nil
	case mfa.StateNoSecondFactor:
		return nil, errors.NewNotEnrolledError()
	}

	now := uc.clock()
	limitKey := ratelimit.AttemptKey(session.SubjectID, constants.MethodTotp)

	if err := uc.limiter.Check(ctx, limitKey, uc.limits.MaxAttempts, uc.limits.Window(), now); err != nil {
		if errors.IsRateLimitExceeded(err) {
			uc.recorder.Record(session.SubjectID, mfa.EventRateLimited,
				map[string]string{"method": constants.MethodTotp},
				cmd.IPAddress, cmd.UserAgent)
		}
		return nil, err
	}

	enrollment, err := uc.enrollments.GetBySubjectID(ctx, session.SubjectID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewNotEnrolledError()
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	if !enrollment.IsActive() {
		return nil, errors.NewNotEnrolledError()
	}

	step, ok, err := uc.totpService.ValidateCode(enrollment.Secret(), cmd.Code, now)
	if err != nil {
		return nil, fmt.Errorf("failed to validate code: %w", err)
	}
	if !ok {
		uc.recorder.Record(session.SubjectID, mfa.EventVerificationFailed,
			map[string]string{"method": constants.MethodTotp},
			cmd.IPAddress, cmd.UserAgent)
		return nil, errors.NewVerificationFailedError()
	}

	advanced, err := uc.enrollments.AdvanceUsedStep(ctx, session.SubjectID, step)
	if err != nil {
		return nil, fmt.Errorf("failed to advance used step: %w", err)
	}
	if !advanced {
		// The code is valid but its time step was already consumed.
		uc.recorder.Record(session.SubjectID, mfa.EventTotpReplayDetected,
			map[string]string{"step": fmt.Sprintf("%d", step)},
			cmd.IPAddress, cmd.UserAgent)
		uc.logger.Warnw("TOTP replay detected", "subject_id", session.SubjectID, "step", step)
		return nil, errors.NewReplayDetectedError()
	}

	if err := uc.sessions.SetState(ctx, cmd.SessionID, mfa.StateVerified); err != nil {
		return nil, fmt.Errorf("failed to advance session state: %w", err)
	}

	if err := uc.limiter.Reset(ctx, limitKey); err != nil {
		uc.logger.Warnw("failed to reset rate limit after verification", "subject_id", session.SubjectID, "error", err)
	}

	uc.recorder.Record(session.SubjectID, mfa.EventTotpVerified, nil, cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("TOTP login verified", "subject_id", session.SubjectID)

	return &VerifyTotpLoginResult{
		SubjectID: session.SubjectID,
		State:     mfa.StateVerified,
	}, nil
}
