package usecases

import (
	"context"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// RenameWebAuthnCredentialCommand represents the command to rename a credential
type RenameWebAuthnCredentialCommand struct {
	SubjectID uint
	SID       string
	Nickname  string
}

// RenameWebAuthnCredentialUseCase renames a subject's credential
type RenameWebAuthnCredentialUseCase struct {
	credentials mfa.WebAuthnCredentialRepository
	logger      logger.Interface
}

// NewRenameWebAuthnCredentialUseCase creates a new RenameWebAuthnCredentialUseCase
func NewRenameWebAuthnCredentialUseCase(
	credentials mfa.WebAuthnCredentialRepository,
	logger logger.Interface,
) *RenameWebAuthnCredentialUseCase {
	return &RenameWebAuthnCredentialUseCase{
		credentials: credentials,
		logger:      logger,
	}
}

// Execute renames the credential
func (uc *RenameWebAuthnCredentialUseCase) Execute(ctx context.Context, cmd RenameWebAuthnCredentialCommand) error {
	if cmd.Nickname == "" {
		return errors.NewValidationError("nickname is required")
	}

	credential, err := uc.credentials.GetBySID(ctx, cmd.SID)
	if err != nil {
		return err
	}
	// SIDs are global, so ownership must be checked explicitly
	if credential.SubjectID() != cmd.SubjectID {
		return errors.NewCredentialNotFoundError()
	}

	credential.Rename(cmd.Nickname)

	if err := uc.credentials.Update(ctx, credential); err != nil {
		uc.logger.Errorw("failed to rename credential", "sid", cmd.SID, "error", err)
		return fmt.Errorf("failed to rename credential: %w", err)
	}

	uc.logger.Infow("credential renamed", "subject_id", cmd.SubjectID, "sid", cmd.SID)
	return nil
}
