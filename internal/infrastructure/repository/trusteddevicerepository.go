package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/mappers"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// TrustedDeviceRepository implements the trusted device repository interface
type TrustedDeviceRepository struct {
	db     *gorm.DB
	mapper mappers.TrustedDeviceMapper
	logger logger.Interface
}

// NewTrustedDeviceRepository creates a new trusted device repository
func NewTrustedDeviceRepository(db *gorm.DB, logger logger.Interface) mfa.TrustedDeviceRepository {
	return &TrustedDeviceRepository{
		db:     db,
		mapper: mappers.NewTrustedDeviceMapper(),
		logger: logger,
	}
}

// Create creates a new trusted device record
func (r *TrustedDeviceRepository) Create(ctx context.Context, device *mfa.TrustedDevice) error {
	model, err := r.mapper.ToModel(device)
	if err != nil {
		r.logger.Errorw("failed to map trusted device entity to model", "error", err)
		return fmt.Errorf("failed to map trusted device entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create trusted device in database", "error", err)
		return fmt.Errorf("failed to create trusted device: %w", err)
	}

	if err := device.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set trusted device ID: %w", err)
	}

	r.logger.Infow("trusted device created", "id", model.ID, "subject_id", model.SubjectID)
	return nil
}

// GetByTokenHash retrieves a device by its token hash
func (r *TrustedDeviceRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*mfa.TrustedDevice, error) {
	var model models.TrustedDeviceModel

	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("trusted device not found")
		}
		r.logger.Errorw("failed to get trusted device by token hash", "error", err)
		return nil, fmt.Errorf("failed to get trusted device: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map trusted device: %w", err)
	}

	return entity, nil
}

// GetBySID retrieves a device by external SID (tdv_xxx), scoped to the subject
func (r *TrustedDeviceRepository) GetBySID(ctx context.Context, subjectID uint, sid string) (*mfa.TrustedDevice, error) {
	var model models.TrustedDeviceModel

	if err := r.db.WithContext(ctx).Where("subject_id = ? AND sid = ?", subjectID, sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("trusted device not found")
		}
		r.logger.Errorw("failed to get trusted device by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get trusted device: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map trusted device: %w", err)
	}

	return entity, nil
}

// GetBySubjectID retrieves all of the subject's device records
func (r *TrustedDeviceRepository) GetBySubjectID(ctx context.Context, subjectID uint) ([]*mfa.TrustedDevice, error) {
	var deviceModels []*models.TrustedDeviceModel

	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Order("created_at DESC").Find(&deviceModels).Error; err != nil {
		r.logger.Errorw("failed to get trusted devices by subject ID", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to get trusted devices: %w", err)
	}

	entities, err := r.mapper.ToEntities(deviceModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map trusted devices: %w", err)
	}

	return entities, nil
}

// UpdateLastSeen records that the device token was accepted
func (r *TrustedDeviceRepository) UpdateLastSeen(ctx context.Context, id uint, seenAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.TrustedDeviceModel{}).
		Where("id = ?", id).
		Update("last_seen_at", seenAt.UTC()).Error; err != nil {
		r.logger.Errorw("failed to update trusted device last seen", "id", id, "error", err)
		return fmt.Errorf("failed to update trusted device: %w", err)
	}

	return nil
}

// DeleteBySID revokes a single device, scoped to the subject
func (r *TrustedDeviceRepository) DeleteBySID(ctx context.Context, subjectID uint, sid string) error {
	result := r.db.WithContext(ctx).Where("subject_id = ? AND sid = ?", subjectID, sid).Delete(&models.TrustedDeviceModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete trusted device", "sid", sid, "error", result.Error)
		return fmt.Errorf("failed to delete trusted device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("trusted device not found")
	}

	r.logger.Infow("trusted device deleted", "subject_id", subjectID, "sid", sid)
	return nil
}

// DeleteBySubjectID revokes all of the subject's devices
func (r *TrustedDeviceRepository) DeleteBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Delete(&models.TrustedDeviceModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete trusted devices", "subject_id", subjectID, "error", result.Error)
		return 0, fmt.Errorf("failed to delete trusted devices: %w", result.Error)
	}

	r.logger.Infow("trusted devices deleted", "subject_id", subjectID, "count", result.RowsAffected)
	return result.RowsAffected, nil
}

// DeleteExpired purges records whose trust lapsed before the cutoff
func (r *TrustedDeviceRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", cutoff.UTC()).Delete(&models.TrustedDeviceModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete expired trusted devices", "error", result.Error)
		return 0, fmt.Errorf("failed to delete expired trusted devices: %w", result.Error)
	}

	return result.RowsAffected, nil
}
