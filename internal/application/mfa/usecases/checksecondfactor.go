package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// CheckSecondFactorCommand represents the command to gate a protected request
type CheckSecondFactorCommand struct {
	SessionID string
}

// CheckSecondFactorResult reports the session's subject and state when the
// gate passes
type CheckSecondFactorResult struct {
	SubjectID uint
	State     mfa.SecondFactorState
}

// CheckSecondFactorUseCase gates protected requests on the session's
// second-factor state. Sessions stuck in the awaiting state are rejected until
// a verification completes.
type CheckSecondFactorUseCase struct {
	sessions mfa.SessionGateway
	logger   logger.Interface
}

// NewCheckSecondFactorUseCase creates a new CheckSecondFactorUseCase
func NewCheckSecondFactorUseCase(
	sessions mfa.SessionGateway,
	logger logger.Interface,
) *CheckSecondFactorUseCase {
	return &CheckSecondFactorUseCase{
		sessions: sessions,
		logger:   logger,
	}
}

// Execute checks whether the session may reach protected resources
func (uc *CheckSecondFactorUseCase) Execute(ctx context.Context, cmd CheckSecondFactorCommand) (*CheckSecondFactorResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.State == mfa.StateAwaitingSecondFactor {
		return nil, errors.NewSecondFactorRequiredError()
	}

	return &CheckSecondFactorResult{
		SubjectID: session.SubjectID,
		State:     session.State,
	}, nil
}
