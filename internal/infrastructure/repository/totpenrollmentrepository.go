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

// TotpEnrollmentRepository implements the TOTP enrollment repository interface
type TotpEnrollmentRepository struct {
	db     *gorm.DB
	mapper mappers.TotpEnrollmentMapper
	logger logger.Interface
}

// NewTotpEnrollmentRepository creates a new TOTP enrollment repository
func NewTotpEnrollmentRepository(db *gorm.DB, logger logger.Interface) mfa.TotpEnrollmentRepository {
	return &TotpEnrollmentRepository{
		db:     db,
		mapper: mappers.NewTotpEnrollmentMapper(),
		logger: logger,
	}
}

// Create creates a new enrollment
func (r *TotpEnrollmentRepository) Create(ctx context.Context, enrollment *mfa.TotpEnrollment) error {
	model, err := r.mapper.ToModel(enrollment)
	if err != nil {
		r.logger.Errorw("failed to map TOTP enrollment entity to model", "error", err)
		return fmt.Errorf("failed to map TOTP enrollment entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create TOTP enrollment in database", "error", err)
		return fmt.Errorf("failed to create TOTP enrollment: %w", err)
	}

	if err := enrollment.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set TOTP enrollment ID: %w", err)
	}

	r.logger.Infow("TOTP enrollment created", "id", model.ID, "subject_id", model.SubjectID)
	return nil
}

// GetBySubjectID retrieves the subject's enrollment, active or pending
func (r *TotpEnrollmentRepository) GetBySubjectID(ctx context.Context, subjectID uint) (*mfa.TotpEnrollment, error) {
	var model models.TotpEnrollmentModel

	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("TOTP enrollment not found")
		}
		r.logger.Errorw("failed to get TOTP enrollment", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to get TOTP enrollment: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map TOTP enrollment: %w", err)
	}

	return entity, nil
}

// Update persists changes to an existing enrollment
func (r *TotpEnrollmentRepository) Update(ctx context.Context, enrollment *mfa.TotpEnrollment) error {
	model, err := r.mapper.ToModel(enrollment)
	if err != nil {
		return fmt.Errorf("failed to map TOTP enrollment entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update TOTP enrollment", "id", model.ID, "error", err)
		return fmt.Errorf("failed to update TOTP enrollment: %w", err)
	}

	return nil
}

// Activate marks the enrollment active with the proving step and stores the
// recovery code batch in the same transaction. A concurrent activation loses:
// the update is guarded on the enrollment still being pending.
func (r *TotpEnrollmentRepository) Activate(ctx context.Context, subjectID uint, step int64, recoveryHashes []string) error {
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TotpEnrollmentModel{}).
			Where("subject_id = ? AND activated_at IS NULL", subjectID).
			Updates(map[string]interface{}{
				"activated_at":   now,
				"last_used_step": step,
				"updated_at":     now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to activate TOTP enrollment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.NewConflictError("TOTP enrollment is missing or already active")
		}

		if err := tx.Where("subject_id = ?", subjectID).Delete(&models.RecoveryCodeModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear old recovery codes: %w", err)
		}

		codeModels := make([]*models.RecoveryCodeModel, 0, len(recoveryHashes))
		for _, hash := range recoveryHashes {
			codeModels = append(codeModels, &models.RecoveryCodeModel{
				SubjectID: subjectID,
				CodeHash:  hash,
				CreatedAt: now,
			})
		}
		if len(codeModels) > 0 {
			if err := tx.Create(&codeModels).Error; err != nil {
				return fmt.Errorf("failed to store recovery codes: %w", err)
			}
		}

		return nil
	})
}

// AdvanceUsedStep atomically moves the replay watermark forward. The guard in
// the WHERE clause makes concurrent submissions of the same code serialize:
// exactly one update wins.
func (r *TotpEnrollmentRepository) AdvanceUsedStep(ctx context.Context, subjectID uint, step int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.TotpEnrollmentModel{}).
		Where("subject_id = ? AND activated_at IS NOT NULL AND (last_used_step IS NULL OR last_used_step < ?)", subjectID, step).
		Updates(map[string]interface{}{
			"last_used_step": step,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to advance TOTP used step", "subject_id", subjectID, "error", result.Error)
		return false, fmt.Errorf("failed to advance TOTP used step: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// DeleteBySubjectID removes the subject's enrollment
func (r *TotpEnrollmentRepository) DeleteBySubjectID(ctx context.Context, subjectID uint) error {
	result := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Delete(&models.TotpEnrollmentModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete TOTP enrollment", "subject_id", subjectID, "error", result.Error)
		return fmt.Errorf("failed to delete TOTP enrollment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("TOTP enrollment not found")
	}

	r.logger.Infow("TOTP enrollment deleted", "subject_id", subjectID)
	return nil
}
