package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// ListWebAuthnCredentialsCommand represents the command to list a subject's credentials
type ListWebAuthnCredentialsCommand struct {
	SubjectID uint
}

// ListWebAuthnCredentialsResult carries the client-facing credential list
type ListWebAuthnCredentialsResult struct {
	Credentials []mfa.WebAuthnCredentialDisplayInfo
}

// ListWebAuthnCredentialsUseCase lists the subject's registered credentials
type ListWebAuthnCredentialsUseCase struct {
	credentials mfa.WebAuthnCredentialRepository
	logger      logger.Interface
}

// NewListWebAuthnCredentialsUseCase creates a new ListWebAuthnCredentialsUseCase
func NewListWebAuthnCredentialsUseCase(
	credentials mfa.WebAuthnCredentialRepository,
	logger logger.Interface,
) *ListWebAuthnCredentialsUseCase {
	return &ListWebAuthnCredentialsUseCase{
		credentials: credentials,
		logger:      logger,
	}
}

// Execute lists the subject's credentials
func (uc *ListWebAuthnCredentialsUseCase) Execute(ctx context.Context, cmd ListWebAuthnCredentialsCommand) (*ListWebAuthnCredentialsResult, error) {
	creds, err := uc.credentials.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		uc.logger.Errorw("failed to list credentials", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	infos := make([]mfa.WebAuthnCredentialDisplayInfo, 0, len(creds))
	for _, c := range creds {
		infos = append(infos, c.GetDisplayInfo())
	}

	return &ListWebAuthnCredentialsResult{Credentials: infos}, nil
}
