package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/token"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// ValidateTrustedDeviceCommand represents the command to skip the second
// factor with a remembered device token
type ValidateTrustedDeviceCommand struct {
	SessionID string
	Token     string
}

// ValidateTrustedDeviceResult reports whether the device satisfied the second factor
type ValidateTrustedDeviceResult struct {
	Trusted bool
	State   mfa.SecondFactorState
}

// ValidateTrustedDeviceUseCase checks a presented device token for a session
// awaiting its second factor. A valid unexpired token verifies the session; a
// missing, foreign, or expired token simply reports untrusted, leaving the
// caller on the normal verification path.
type ValidateTrustedDeviceUseCase struct {
	sessions mfa.SessionGateway
	devices  mfa.TrustedDeviceRepository
	tokens   token.TokenGenerator
	clock    func() time.Time
	logger   logger.Interface
}

// NewValidateTrustedDeviceUseCase creates a new ValidateTrustedDeviceUseCase
func NewValidateTrustedDeviceUseCase(
	sessions mfa.SessionGateway,
	devices mfa.TrustedDeviceRepository,
	tokens token.TokenGenerator,
	clock func() time.Time,
	logger logger.Interface,
) *ValidateTrustedDeviceUseCase {
	return &ValidateTrustedDeviceUseCase{
		sessions: sessions,
		devices:  devices,
		tokens:   tokens,
		clock:    clock,
		logger:   logger,
	}
}

// Execute checks the device token and, when valid, verifies the session
func (uc *ValidateTrustedDeviceUseCase) Execute(ctx context.Context, cmd ValidateTrustedDeviceCommand) (*ValidateTrustedDeviceResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.State != mfa.StateAwaitingSecondFactor {
		return &ValidateTrustedDeviceResult{
			Trusted: session.State == mfa.StateVerified,
			State:   session.State,
		}, nil
	}

	if cmd.Token == "" {
		return &ValidateTrustedDeviceResult{Trusted: false, State: session.State}, nil
	}

	device, err := uc.devices.GetByTokenHash(ctx, uc.tokens.Hash(cmd.Token))
	if err != nil {
		if errors.IsNotFoundError(err) {
			return &ValidateTrustedDeviceResult{Trusted: false, State: session.State}, nil
		}
		return nil, fmt.Errorf("failed to look up trusted device: %w", err)
	}

	// The token must belong to the session's subject; a stolen token from
	// another account buys nothing.
	if device.SubjectID() != session.SubjectID {
		uc.logger.Warnw("trusted device token subject mismatch",
			"session_subject_id", session.SubjectID,
			"device_subject_id", device.SubjectID())
		return &ValidateTrustedDeviceResult{Trusted: false, State: session.State}, nil
	}

	now := uc.clock()
	if device.IsExpired(now) {
		return &ValidateTrustedDeviceResult{Trusted: false, State: session.State}, nil
	}

	if err := uc.devices.UpdateLastSeen(ctx, device.ID(), now); err != nil {
		uc.logger.Warnw("failed to update device last seen", "device_sid", device.SID(), "error", err)
	}

	if err := uc.sessions.SetState(ctx, cmd.SessionID, mfa.StateVerified); err != nil {
		return nil, fmt.Errorf("failed to advance session state: %w", err)
	}

	uc.logger.Infow("second factor satisfied by trusted device",
		"subject_id", session.SubjectID, "device_sid", device.SID())

	return &ValidateTrustedDeviceResult{Trusted: true, State: mfa.StateVerified}, nil
}
