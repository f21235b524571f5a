package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/mapper"
)

// WebAuthnCredentialMapper handles the conversion between domain entities and persistence models
type WebAuthnCredentialMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.WebAuthnCredentialModel) (*mfa.WebAuthnCredential, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *mfa.WebAuthnCredential) (*models.WebAuthnCredentialModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.WebAuthnCredentialModel) ([]*mfa.WebAuthnCredential, error)
}

// WebAuthnCredentialMapperImpl is the concrete implementation of WebAuthnCredentialMapper
type WebAuthnCredentialMapperImpl struct{}

// NewWebAuthnCredentialMapper creates a new WebAuthn credential mapper
func NewWebAuthnCredentialMapper() WebAuthnCredentialMapper {
	return &WebAuthnCredentialMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *WebAuthnCredentialMapperImpl) ToEntity(model *models.WebAuthnCredentialModel) (*mfa.WebAuthnCredential, error) {
	if model == nil {
		return nil, nil
	}

	var transports []string
	if len(model.Transports) > 0 {
		if err := json.Unmarshal(model.Transports, &transports); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transports: %w", err)
		}
	}

	credential, err := mfa.ReconstructWebAuthnCredential(
		model.ID,
		model.SID,
		model.SubjectID,
		model.CredentialID,
		model.PublicKey,
		model.AttestationType,
		model.AAGUID,
		model.SignCount,
		model.BackupEligible,
		model.BackupState,
		transports,
		model.Nickname,
		model.LastUsedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct WebAuthn credential entity: %w", err)
	}

	return credential, nil
}

// ToModel converts a domain entity to a persistence model
func (m *WebAuthnCredentialMapperImpl) ToModel(entity *mfa.WebAuthnCredential) (*models.WebAuthnCredentialModel, error) {
	if entity == nil {
		return nil, nil
	}

	var transportsJSON []byte
	if len(entity.Transports()) > 0 {
		var err error
		transportsJSON, err = json.Marshal(entity.Transports())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transports: %w", err)
		}
	}

	return &models.WebAuthnCredentialModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		SubjectID:       entity.SubjectID(),
		CredentialID:    entity.CredentialID(),
		PublicKey:       entity.PublicKey(),
		AttestationType: entity.AttestationType(),
		AAGUID:          entity.AAGUID(),
		SignCount:       entity.SignCount(),
		BackupEligible:  entity.BackupEligible(),
		BackupState:     entity.BackupState(),
		Transports:      transportsJSON,
		Nickname:        entity.Nickname(),
		LastUsedAt:      entity.LastUsedAt(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *WebAuthnCredentialMapperImpl) ToEntities(modelList []*models.WebAuthnCredentialModel) ([]*mfa.WebAuthnCredential, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.WebAuthnCredentialModel) uint { return model.ID })
}
