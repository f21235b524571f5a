package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/inkwell-press/inkwell/internal/application/mfa/helpers"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/cache"
	"github.com/inkwell-press/inkwell/internal/infrastructure/ratelimit"
	sharedConfig "github.com/inkwell-press/inkwell/internal/shared/config"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// FinishWebAuthnLoginCommand represents the command to complete login with an assertion
type FinishWebAuthnLoginCommand struct {
	SessionID string
	Challenge string
	Response  *protocol.ParsedCredentialAssertionData
	IPAddress string
	UserAgent string
}

// FinishWebAuthnLoginResult reports the session state after verification
type FinishWebAuthnLoginResult struct {
	SubjectID     uint
	CredentialSID string
	State         mfa.SecondFactorState
}

// FinishWebAuthnLoginUseCase validates an assertion for a session awaiting
// its second factor. A signature counter that fails to increase is treated as
// a cloned credential and rejected.
type FinishWebAuthnLoginUseCase struct {
	sessions        mfa.SessionGateway
	subjects        mfa.SubjectGateway
	credentials     mfa.WebAuthnCredentialRepository
	webAuthnService *auth.WebAuthnService
	challengeStore  *cache.WebAuthnChallengeStore
	limiter         ratelimit.RateLimiter
	limits          sharedConfig.RateLimitConfig
	recorder        *audit.Recorder
	clock           func() time.Time
	logger          logger.Interface
}

// NewFinishWebAuthnLoginUseCase creates a new FinishWebAuthnLoginUseCase
func NewFinishWebAuthnLoginUseCase(
	sessions mfa.SessionGateway,
	subjects mfa.SubjectGateway,
	credentials mfa.WebAuthnCredentialRepository,
	webAuthnService *auth.WebAuthnService,
	challengeStore *cache.WebAuthnChallengeStore,
	limiter ratelimit.RateLimiter,
	limits sharedConfig.RateLimitConfig,
	recorder *audit.Recorder,
	clock func() time.Time,
	logger logger.Interface,
) *FinishWebAuthnLoginUseCase {
	return &FinishWebAuthnLoginUseCase{
		sessions:        sessions,
		subjects:        subjects,
		credentials:     credentials,
		webAuthnService: webAuthnService,
		challengeStore:  challengeStore,
		limiter:         limiter,
		limits:          limits,
		recorder:        recorder,
		clock:           clock,
		logger:          logger,
	}
}

// Execute validates the assertion and advances the session to verified
func (uc *FinishWebAuthnLoginUseCase) Execute(ctx context.Context, cmd FinishWebAuthnLoginCommand) (*FinishWebAuthnLoginResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	switch session.State {
	case mfa.StateVerified:
		return &FinishWebAuthnLoginResult{SubjectID: session.SubjectID, State: session.State}, nil
	case mfa.StateNoSecondFactor:
		return nil, errors.NewNotEnrolledError()
	}

	limitKey := ratelimit.AttemptKey(session.SubjectID, constants.MethodWebAuthn)
	if err := uc.limiter.Check(ctx, limitKey, uc.limits.MaxAttempts, uc.limits.Window(), uc.clock()); err != nil {
		if errors.IsRateLimitExceeded(err) {
			uc.recorder.Record(session.SubjectID, mfa.EventRateLimited,
				map[string]string{"method": constants.MethodWebAuthn},
				cmd.IPAddress, cmd.UserAgent)
		}
		return nil, err
	}

	sessionData, err := uc.challengeStore.Consume(ctx, cmd.Challenge)
	if err != nil {
		uc.logger.Errorw("failed to get assertion challenge", "subject_id", session.SubjectID, "error", err)
		return nil, fmt.Errorf("invalid or expired challenge: %w", err)
	}

	subject, err := uc.subjects.FindByID(ctx, session.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	creds, err := uc.credentials.GetBySubjectID(ctx, session.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	webAuthnSubject := helpers.NewWebAuthnSubject(subject, creds)

	validated, err := uc.webAuthnService.FinishLogin(webAuthnSubject, *sessionData, cmd.Response)
	if err != nil {
		uc.recorder.Record(session.SubjectID, mfa.EventVerificationFailed,
			map[string]string{"method": constants.MethodWebAuthn},
			cmd.IPAddress, cmd.UserAgent)
		uc.logger.Warnw("assertion validation failed", "subject_id", session.SubjectID, "error", err)
		return nil, errors.NewVerificationFailedError()
	}

	stored, err := uc.credentials.GetByCredentialID(ctx, validated.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load asserted credential: %w", err)
	}

	oldCount := stored.SignCount()
	if err := stored.UpdateSignCount(validated.Authenticator.SignCount); err != nil {
		uc.recorder.Record(session.SubjectID, mfa.EventWebAuthnCloneSuspected,
			map[string]string{"credential": stored.SID()},
			cmd.IPAddress, cmd.UserAgent)
		uc.logger.Warnw("sign count regression, possible cloned credential",
			"subject_id", session.SubjectID,
			"credential_sid", stored.SID(),
			"stored", oldCount,
			"reported", validated.Authenticator.SignCount,
		)
		return nil, errors.NewReplayDetectedError()
	}

	// Authenticators that never report counters (0 -> 0) have nothing to
	// advance; the CAS write only applies when the counter moved.
	if stored.SignCount() != oldCount {
		applied, err := uc.credentials.UpdateSignCount(ctx, stored.ID(), oldCount, stored.SignCount())
		if err != nil {
			return nil, fmt.Errorf("failed to persist sign count: %w", err)
		}
		if !applied {
			// A concurrent assertion advanced the counter first.
			uc.recorder.Record(session.SubjectID, mfa.EventWebAuthnCloneSuspected,
				map[string]string{"credential": stored.SID()},
				cmd.IPAddress, cmd.UserAgent)
			return nil, errors.NewReplayDetectedError()
		}
	} else {
		stored.UpdateLastUsed()
		if err := uc.credentials.Update(ctx, stored); err != nil {
			uc.logger.Warnw("failed to record credential use", "credential_sid", stored.SID(), "error", err)
		}
	}

	if err := uc.sessions.SetState(ctx, cmd.SessionID, mfa.StateVerified); err != nil {
		return nil, fmt.Errorf("failed to advance session state: %w", err)
	}

	if err := uc.limiter.Reset(ctx, limitKey); err != nil {
		uc.logger.Warnw("failed to reset rate limit after verification", "subject_id", session.SubjectID, "error", err)
	}

	uc.recorder.Record(session.SubjectID, mfa.EventWebAuthnVerified,
		map[string]string{"credential": stored.SID()},
		cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("assertion login verified", "subject_id", session.SubjectID, "credential_sid", stored.SID())

	return &FinishWebAuthnLoginResult{
		SubjectID:     session.SubjectID,
		CredentialSID: stored.SID(),
		State:         mfa.StateVerified,
	}, nil
}
