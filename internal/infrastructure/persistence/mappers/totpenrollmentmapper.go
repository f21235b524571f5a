package mappers

import (
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
)

// TotpEnrollmentMapper handles the conversion between domain entities and persistence models
type TotpEnrollmentMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.TotpEnrollmentModel) (*mfa.TotpEnrollment, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *mfa.TotpEnrollment) (*models.TotpEnrollmentModel, error)
}

// TotpEnrollmentMapperImpl is the concrete implementation of TotpEnrollmentMapper
type TotpEnrollmentMapperImpl struct{}

// NewTotpEnrollmentMapper creates a new TOTP enrollment mapper
func NewTotpEnrollmentMapper() TotpEnrollmentMapper {
	return &TotpEnrollmentMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *TotpEnrollmentMapperImpl) ToEntity(model *models.TotpEnrollmentModel) (*mfa.TotpEnrollment, error) {
	if model == nil {
		return nil, nil
	}

	enrollment, err := mfa.ReconstructTotpEnrollment(
		model.ID,
		model.SubjectID,
		model.Secret,
		model.ActivatedAt,
		model.LastUsedStep,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct TOTP enrollment entity: %w", err)
	}

	return enrollment, nil
}

// ToModel converts a domain entity to a persistence model
func (m *TotpEnrollmentMapperImpl) ToModel(entity *mfa.TotpEnrollment) (*models.TotpEnrollmentModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.TotpEnrollmentModel{
		ID:           entity.ID(),
		SubjectID:    entity.SubjectID(),
		Secret:       entity.Secret(),
		ActivatedAt:  entity.ActivatedAt(),
		LastUsedStep: entity.LastUsedStep(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}, nil
}
