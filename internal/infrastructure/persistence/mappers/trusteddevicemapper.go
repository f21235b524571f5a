package mappers

import (
	"fmt"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/mapper"
)

// TrustedDeviceMapper handles the conversion between domain entities and persistence models
type TrustedDeviceMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.TrustedDeviceModel) (*mfa.TrustedDevice, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *mfa.TrustedDevice) (*models.TrustedDeviceModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.TrustedDeviceModel) ([]*mfa.TrustedDevice, error)
}

// TrustedDeviceMapperImpl is the concrete implementation of TrustedDeviceMapper
type TrustedDeviceMapperImpl struct{}

// NewTrustedDeviceMapper creates a new trusted device mapper
func NewTrustedDeviceMapper() TrustedDeviceMapper {
	return &TrustedDeviceMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *TrustedDeviceMapperImpl) ToEntity(model *models.TrustedDeviceModel) (*mfa.TrustedDevice, error) {
	if model == nil {
		return nil, nil
	}

	device, err := mfa.ReconstructTrustedDevice(
		model.ID,
		model.SID,
		model.SubjectID,
		model.TokenHash,
		model.DeviceName,
		model.UserAgent,
		model.IPAddress,
		model.LastSeenAt,
		model.ExpiresAt,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct trusted device entity: %w", err)
	}

	return device, nil
}

// ToModel converts a domain entity to a persistence model
func (m *TrustedDeviceMapperImpl) ToModel(entity *mfa.TrustedDevice) (*models.TrustedDeviceModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.TrustedDeviceModel{
		ID:         entity.ID(),
		SID:        entity.SID(),
		SubjectID:  entity.SubjectID(),
		TokenHash:  entity.TokenHash(),
		DeviceName: entity.DeviceName(),
		UserAgent:  entity.UserAgent(),
		IPAddress:  entity.IPAddress(),
		LastSeenAt: entity.LastSeenAt(),
		ExpiresAt:  entity.ExpiresAt(),
		CreatedAt:  entity.CreatedAt(),
	}, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *TrustedDeviceMapperImpl) ToEntities(modelList []*models.TrustedDeviceModel) ([]*mfa.TrustedDevice, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.TrustedDeviceModel) uint { return model.ID })
}
