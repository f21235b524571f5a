package usecases

import (
	"context"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/inkwell-press/inkwell/internal/application/mfa/helpers"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/cache"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// StartWebAuthnLoginCommand represents the command to start assertion for a pending session
type StartWebAuthnLoginCommand struct {
	SessionID string
}

// StartWebAuthnLoginResult carries the assertion options for the client
type StartWebAuthnLoginResult struct {
	Options *protocol.CredentialAssertion
}

// StartWebAuthnLoginUseCase starts the assertion ceremony for a session
// awaiting its second factor
type StartWebAuthnLoginUseCase struct {
	sessions        mfa.SessionGateway
	subjects        mfa.SubjectGateway
	credentials     mfa.WebAuthnCredentialRepository
	webAuthnService *auth.WebAuthnService
	challengeStore  *cache.WebAuthnChallengeStore
	logger          logger.Interface
}

// NewStartWebAuthnLoginUseCase creates a new StartWebAuthnLoginUseCase
func NewStartWebAuthnLoginUseCase(
	sessions mfa.SessionGateway,
	subjects mfa.SubjectGateway,
	credentials mfa.WebAuthnCredentialRepository,
	webAuthnService *auth.WebAuthnService,
	challengeStore *cache.WebAuthnChallengeStore,
	logger logger.Interface,
) *StartWebAuthnLoginUseCase {
	return &StartWebAuthnLoginUseCase{
		sessions:        sessions,
		subjects:        subjects,
		credentials:     credentials,
		webAuthnService: webAuthnService,
		challengeStore:  challengeStore,
		logger:          logger,
	}
}

// Execute starts the assertion ceremony
func (uc *StartWebAuthnLoginUseCase) Execute(ctx context.Context, cmd StartWebAuthnLoginCommand) (*StartWebAuthnLoginResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.State != mfa.StateAwaitingSecondFactor {
		return nil, errors.NewSecondFactorRequiredError()
	}

	subject, err := uc.subjects.FindByID(ctx, session.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	creds, err := uc.credentials.GetBySubjectID(ctx, session.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if len(creds) == 0 {
		return nil, errors.NewNotEnrolledError()
	}

	webAuthnSubject := helpers.NewWebAuthnSubject(subject, creds)

	options, sessionData, err := uc.webAuthnService.BeginLogin(webAuthnSubject)
	if err != nil {
		uc.logger.Errorw("failed to begin assertion", "subject_id", session.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to begin assertion: %w", err)
	}

	if err := uc.challengeStore.Store(ctx, sessionData); err != nil {
		uc.logger.Errorw("failed to store assertion challenge", "subject_id", session.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to store assertion challenge: %w", err)
	}

	uc.logger.Infow("assertion ceremony started", "subject_id", session.SubjectID)

	return &StartWebAuthnLoginResult{Options: options}, nil
}
