package usecases

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/inkwell-press/inkwell/internal/application/mfa/helpers"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/cache"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/id"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// maxCredentialsPerSubject bounds how many authenticators one account can register
const maxCredentialsPerSubject = 10

// FinishWebAuthnRegistrationCommand represents the command to finish credential registration
type FinishWebAuthnRegistrationCommand struct {
	SubjectID uint
	Challenge string
	Response  *protocol.ParsedCredentialCreationData
	Nickname  string
	IPAddress string
	UserAgent string
}

// FinishWebAuthnRegistrationResult carries the stored credential and, when
// registration established the subject's first second factor, the one-time
// recovery code batch
type FinishWebAuthnRegistrationResult struct {
	Credential    *mfa.WebAuthnCredential
	RecoveryCodes []string
}

// FinishWebAuthnRegistrationUseCase handles the completion of the registration ceremony
type FinishWebAuthnRegistrationUseCase struct {
	subjects        mfa.SubjectGateway
	credentials     mfa.WebAuthnCredentialRepository
	enrollments     mfa.TotpEnrollmentRepository
	webAuthnService *auth.WebAuthnService
	challengeStore  *cache.WebAuthnChallengeStore
	recoveryCodes   *auth.RecoveryCodeService
	recorder        *audit.Recorder
	logger          logger.Interface
}

// NewFinishWebAuthnRegistrationUseCase creates a new FinishWebAuthnRegistrationUseCase
func NewFinishWebAuthnRegistrationUseCase(
	subjects mfa.SubjectGateway,
	credentials mfa.WebAuthnCredentialRepository,
	enrollments mfa.TotpEnrollmentRepository,
	webAuthnService *auth.WebAuthnService,
	challengeStore *cache.WebAuthnChallengeStore,
	recoveryCodes *auth.RecoveryCodeService,
	recorder *audit.Recorder,
	logger logger.Interface,
) *FinishWebAuthnRegistrationUseCase {
	return &FinishWebAuthnRegistrationUseCase{
		subjects:        subjects,
		credentials:     credentials,
		enrollments:     enrollments,
		webAuthnService: webAuthnService,
		challengeStore:  challengeStore,
		recoveryCodes:   recoveryCodes,
		recorder:        recorder,
		logger:          logger,
	}
}

// Execute completes the registration ceremony
func (uc *FinishWebAuthnRegistrationUseCase) Execute(ctx context.Context, cmd FinishWebAuthnRegistrationCommand) (*FinishWebAuthnRegistrationResult, error) {
	subject, err := uc.subjects.FindByID(ctx, cmd.SubjectID)
	if err != nil {
		uc.logger.Errorw("failed to get subject", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	sessionData, err := uc.challengeStore.Consume(ctx, cmd.Challenge)
	if err != nil {
		uc.logger.Errorw("failed to get registration challenge", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("invalid or expired challenge: %w", err)
	}

	// The challenge must belong to the requesting subject
	expectedID := helpers.NewWebAuthnSubject(subject, nil).WebAuthnID()
	if !bytes.Equal(sessionData.UserID, expectedID) {
		uc.logger.Errorw("challenge subject mismatch", "subject_id", cmd.SubjectID)
		return nil, fmt.Errorf("invalid challenge")
	}

	existing, err := uc.credentials.GetBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing credentials: %w", err)
	}
	if len(existing) >= maxCredentialsPerSubject {
		uc.logger.Warnw("subject reached credential limit", "subject_id", cmd.SubjectID, "count", len(existing))
		return nil, fmt.Errorf("maximum number of credentials reached (limit: %d)", maxCredentialsPerSubject)
	}

	webAuthnSubject := helpers.NewWebAuthnSubject(subject, existing)

	credential, err := uc.webAuthnService.FinishRegistration(webAuthnSubject, *sessionData, cmd.Response)
	if err != nil {
		uc.logger.Errorw("failed to finish credential registration", "subject_id", cmd.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to verify credential registration: %w", err)
	}

	exists, err := uc.credentials.ExistsByCredentialID(ctx, credential.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check credential existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("credential already registered")
	}

	nickname := cmd.Nickname
	if nickname == "" {
		nickname = "Security key"
	}

	entity, err := mfa.NewWebAuthnCredential(cmd.SubjectID, credential, nickname, id.NewWebAuthnCredentialSID)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential entity: %w", err)
	}

	// First second factor on the account gets a recovery code batch in the
	// same transaction and flips the subject's MFA flag.
	firstFactor := len(existing) == 0 && !uc.hasActiveTotp(ctx, cmd.SubjectID)

	var plainCodes []string
	if firstFactor {
		codes, hashes, err := uc.recoveryCodes.GenerateBatch()
		if err != nil {
			return nil, fmt.Errorf("failed to generate recovery codes: %w", err)
		}
		plainCodes = codes

		if err := uc.credentials.CreateWithRecoveryBatch(ctx, entity, hashes); err != nil {
			uc.logger.Errorw("failed to save credential", "subject_id", cmd.SubjectID, "error", err)
			return nil, fmt.Errorf("failed to save credential: %w", err)
		}

		if err := uc.subjects.SetMFAEnabled(ctx, cmd.SubjectID, true); err != nil {
			uc.logger.Errorw("failed to enable MFA flag", "subject_id", cmd.SubjectID, "error", err)
			return nil, fmt.Errorf("failed to enable MFA flag: %w", err)
		}
	} else {
		if err := uc.credentials.Create(ctx, entity); err != nil {
			uc.logger.Errorw("failed to save credential", "subject_id", cmd.SubjectID, "error", err)
			return nil, fmt.Errorf("failed to save credential: %w", err)
		}
	}

	uc.recorder.Record(cmd.SubjectID, mfa.EventWebAuthnRegistered,
		map[string]string{"credential": entity.SID()},
		cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("credential registration completed", "subject_id", cmd.SubjectID, "credential_sid", entity.SID())

	return &FinishWebAuthnRegistrationResult{
		Credential:    entity,
		RecoveryCodes: plainCodes,
	}, nil
}

func (uc *FinishWebAuthnRegistrationUseCase) hasActiveTotp(ctx context.Context, subjectID uint) bool {
	enrollment, err := uc.enrollments.GetBySubjectID(ctx, subjectID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Warnw("failed to check TOTP enrollment", "subject_id", subjectID, "error", err)
		}
		return false
	}
	return enrollment.IsActive()
}
