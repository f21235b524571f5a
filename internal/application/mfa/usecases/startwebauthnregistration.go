package usecases

import (
	"context"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/inkwell-press/inkwell/internal/application/mfa/helpers"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/cache"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// StartWebAuthnRegistrationCommand represents the command to start credential registration
type StartWebAuthnRegistrationCommand struct {
	SubjectID uint
}

// StartWebAuthnRegistrationResult carries the creation options for the client
type StartWebAuthnRegistrationResult struct {
	Options *protocol.CredentialCreation
}

// StartWebAuthnRegistrationUseCase handles the start of the registration ceremony
type StartWebAuthnRegistrationUseCase struct {
	subjects        mfa.SubjectGateway
	credentials     mfa.WebAuthnCredentialRepository
	webAuthnService *auth.WebAuthnService
	challengeStore  *cache.WebAuthnChallengeStore
	logger          logger.Interface
}

// NewStartWebAuthnRegistrationUseCase creates a new StartWebAuthnRegistrationUseCase
func NewStartWebAuthnRegistrationUseCase(
	subjects mfa.SubjectGateway,
	credentials mfa.WebAuthnCredentialRepository,
	webAuthnService *auth.WebAuthnService,
	challengeStore *cache.WebAuthnChallengeStore,
	logger logger.Interface,
) *StartWebAuthnRegistrationUseCase {
	return &StartWebAuthnRegistrationUseCase{
		subjects:        subjects,
		credentials:     credentials,
		webAuthnService: webAuthnService,
		challengeStore:  challengeStore,
		logger:          logger,
	}
}

// Execute starts the registration ceremony
func (uc *StartWebAuthnRegistrationUseCase) Execute(ctx context.Context, cmd StartWebAuthnRegistrationCommand) (*StartWebAuthnRegistrationResult, error) {
	subject, err := uc.subjects.FindByID(ctx, cmd.SubjectID)
	if err != nil {
		uc.logger.Errorw("failed to get subject", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	existing, err := uc.credentials.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing credentials: %w", err)
	}

	webAuthnSubject := helpers.NewWebAuthnSubject(subject, existing)

	// Exclude already-registered authenticators
	excludeCredentials := make([]protocol.CredentialDescriptor, 0, len(existing))
	for _, cred := range existing {
		excludeCredentials = append(excludeCredentials, cred.Descriptor())
	}

	// AuthenticatorAttachment is left open so platform authenticators and
	// roaming security keys both work.
	options, sessionData, err := uc.webAuthnService.BeginRegistration(
		webAuthnSubject,
		webauthn.WithExclusions(excludeCredentials),
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			UserVerification: protocol.VerificationPreferred,
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
		}),
	)
	if err != nil {
		uc.logger.Errorw("failed to begin credential registration", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to begin credential registration: %w", err)
	}

	if err := uc.challengeStore.Store(ctx, sessionData); err != nil {
		uc.logger.Errorw("failed to store registration challenge", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to store registration challenge: %w", err)
	}

	uc.logger.Infow("credential registration started", "subject_id", cmd.SubjectID)

	return &StartWebAuthnRegistrationResult{Options: options}, nil
}
