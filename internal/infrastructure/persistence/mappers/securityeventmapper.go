package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/mapper"
)

// SecurityEventMapper handles the conversion between domain entities and persistence models
type SecurityEventMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.SecurityEventModel) (*mfa.SecurityEvent, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *mfa.SecurityEvent) (*models.SecurityEventModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.SecurityEventModel) ([]*mfa.SecurityEvent, error)
}

// SecurityEventMapperImpl is the concrete implementation of SecurityEventMapper
type SecurityEventMapperImpl struct{}

// NewSecurityEventMapper creates a new security event mapper
func NewSecurityEventMapper() SecurityEventMapper {
	return &SecurityEventMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *SecurityEventMapperImpl) ToEntity(model *models.SecurityEventModel) (*mfa.SecurityEvent, error) {
	if model == nil {
		return nil, nil
	}

	var metadata map[string]string
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
		}
	}

	event, err := mfa.ReconstructSecurityEvent(
		model.ID,
		model.SubjectID,
		mfa.SecurityEventKind(model.Kind),
		metadata,
		model.IPAddress,
		model.UserAgent,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct security event entity: %w", err)
	}

	return event, nil
}

// ToModel converts a domain entity to a persistence model
func (m *SecurityEventMapperImpl) ToModel(entity *mfa.SecurityEvent) (*models.SecurityEventModel, error) {
	if entity == nil {
		return nil, nil
	}

	var metadataJSON []byte
	if len(entity.Metadata()) > 0 {
		var err error
		metadataJSON, err = json.Marshal(entity.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	return &models.SecurityEventModel{
		ID:        entity.ID(),
		SubjectID: entity.SubjectID(),
		Kind:      string(entity.Kind()),
		Metadata:  metadataJSON,
		IPAddress: entity.IPAddress(),
		UserAgent: entity.UserAgent(),
		CreatedAt: entity.CreatedAt(),
	}, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *SecurityEventMapperImpl) ToEntities(modelList []*models.SecurityEventModel) ([]*mfa.SecurityEvent, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SecurityEventModel) uint { return model.ID })
}
