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

// ConsumeRecoveryCodeCommand represents the command to complete login with a recovery code
type ConsumeRecoveryCodeCommand struct {
	SessionID string
	Code      string
	IPAddress string
	UserAgent string
}

// ConsumeRecoveryCodeResult reports the session state and how many codes remain
type ConsumeRecoveryCodeResult struct {
	SubjectID      uint
	State          mfa.SecondFactorState
	RemainingCodes int64
}

// ConsumeRecoveryCodeUseCase verifies a backup code for a session awaiting
// its second factor. Each code works exactly once; a wrong code and an
// already-used code are indistinguishable to the caller.
type ConsumeRecoveryCodeUseCase struct {
	sessions      mfa.SessionGateway
	recoveryRepo  mfa.RecoveryCodeRepository
	recoveryCodes *auth.RecoveryCodeService
	limiter       ratelimit.RateLimiter
	limits        sharedConfig.RateLimitConfig
	recorder      *audit.Recorder
	clock         func() time.Time
	logger        logger.Interface
}

// NewConsumeRecoveryCodeUseCase creates a new ConsumeRecoveryCodeUseCase
func NewConsumeRecoveryCodeUseCase(
	sessions mfa.SessionGateway,
	recoveryRepo mfa.RecoveryCodeRepository,
	recoveryCodes *auth.RecoveryCodeService,
	limiter ratelimit.RateLimiter,
	limits sharedConfig.RateLimitConfig,
	recorder *audit.Recorder,
	clock func() time.Time,
	logger logger.Interface,
) *ConsumeRecoveryCodeUseCase {
	return &ConsumeRecoveryCodeUseCase{
		sessions:      sessions,
		recoveryRepo:  recoveryRepo,
		recoveryCodes: recoveryCodes,
		limiter:       limiter,
		limits:        limits,
		recorder:      recorder,
		clock:         clock,
		logger:        logger,
	}
}

// Execute verifies the recovery code and advances the session to verified
func (uc *ConsumeRecoveryCodeUseCase) Execute(ctx context.Context, cmd ConsumeRecoveryCodeCommand) (*ConsumeRecoveryCodeResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	switch session.State {
	case mfa.StateVerified:
		remaining, _ := uc.recoveryRepo.CountUnusedBySubjectID(ctx, session.SubjectID)
		return &ConsumeRecoveryCodeResult{SubjectID: session.SubjectID, State: session.State, RemainingCodes: remaining}, nil
	case mfa.StateNoSecondFactor:
		return nil, errors.NewNotEnrolledError()
	}

	limitKey := ratelimit.AttemptKey(session.SubjectID, constants.MethodRecoveryCode)
	if err := uc.limiter.Check(ctx, limitKey, uc.limits.MaxAttempts, uc.limits.Window(), uc.clock()); err != nil {
		if errors.IsRateLimitExceeded(err) {
			uc.recorder.Record(session.SubjectID, mfa.EventRateLimited,
				map[string]string{"method": constants.MethodRecoveryCode},
				cmd.IPAddress, cmd.UserAgent)
		}
		return nil, err
	}

	unused, err := uc.recoveryRepo.GetUnusedBySubjectID(ctx, session.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recovery codes: %w", err)
	}

	// Compare against every unused hash. Which row matched says nothing to
	// the caller: a miss and a previously-consumed code produce the same
	// verification failure.
	var matched *mfa.RecoveryCode
	for _, rc := range unused {
		if uc.recoveryCodes.Verify(cmd.Code, rc.CodeHash()) {
			matched = rc
			break
		}
	}

	if matched == nil {
		uc.recorder.Record(session.SubjectID, mfa.EventVerificationFailed,
			map[string]string{"method": constants.MethodRecoveryCode},
			cmd.IPAddress, cmd.UserAgent)
		return nil, errors.NewVerificationFailedError()
	}

	consumed, err := uc.recoveryRepo.MarkUsed(ctx, matched.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to consume recovery code: %w", err)
	}
	if !consumed {
		// Concurrent submission of the same code: the other attempt won.
		uc.recorder.Record(session.SubjectID, mfa.EventVerificationFailed,
			map[string]string{"method": constants.MethodRecoveryCode},
			cmd.IPAddress, cmd.UserAgent)
		return nil, errors.NewVerificationFailedError()
	}

	if err := uc.sessions.SetState(ctx, cmd.SessionID, mfa.StateVerified); err != nil {
		return nil, fmt.Errorf("failed to advance session state: %w", err)
	}

	if err := uc.limiter.Reset(ctx, limitKey); err != nil {
		uc.logger.Warnw("failed to reset rate limit after verification", "subject_id", session.SubjectID, "error", err)
	}

	remaining, err := uc.recoveryRepo.CountUnusedBySubjectID(ctx, session.SubjectID)
	if err != nil {
		uc.logger.Warnw("failed to count remaining recovery codes", "subject_id", session.SubjectID, "error", err)
	}

	uc.recorder.Record(session.SubjectID, mfa.EventRecoveryCodeConsumed,
		map[string]string{"remaining": fmt.Sprintf("%d", remaining)},
		cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("recovery code consumed", "subject_id", session.SubjectID, "remaining", remaining)

	return &ConsumeRecoveryCodeResult{
		SubjectID:      session.SubjectID,
		State:          mfa.StateVerified,
		RemainingCodes: remaining,
	}, nil
}
