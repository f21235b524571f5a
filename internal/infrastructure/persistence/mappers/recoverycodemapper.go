package mappers

import (
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/mapper"
)

// RecoveryCodeMapper handles the conversion between domain entities and persistence models
type RecoveryCodeMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.RecoveryCodeModel) (*mfa.RecoveryCode, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.RecoveryCodeModel) ([]*mfa.RecoveryCode, error)
}

// RecoveryCodeMapperImpl is the concrete implementation of RecoveryCodeMapper
type RecoveryCodeMapperImpl struct{}

// NewRecoveryCodeMapper creates a new recovery code mapper
func NewRecoveryCodeMapper() RecoveryCodeMapper {
	return &RecoveryCodeMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *RecoveryCodeMapperImpl) ToEntity(model *models.RecoveryCodeModel) (*mfa.RecoveryCode, error) {
	if model == nil {
		return nil, nil
	}

	code, err := mfa.ReconstructRecoveryCode(
		model.ID,
		model.SubjectID,
		model.CodeHash,
		model.UsedAt,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct recovery code entity: %w", err)
	}

	return code, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *RecoveryCodeMapperImpl) ToEntities(modelList []*models.RecoveryCodeModel) ([]*mfa.RecoveryCode, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.RecoveryCodeModel) uint { return model.ID })
}
