package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/mappers"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// RecoveryCodeRepository implements the recovery code repository interface
type RecoveryCodeRepository struct {
	db     *gorm.DB
	mapper mappers.RecoveryCodeMapper
	logger logger.Interface
}

// NewRecoveryCodeRepository creates a new recovery code repository
func NewRecoveryCodeRepository(db *gorm.DB, logger logger.Interface) mfa.RecoveryCodeRepository {
	return &RecoveryCodeRepository{
		db:     db,
		mapper: mappers.NewRecoveryCodeMapper(),
		logger: logger,
	}
}

// ReplaceBatch deletes the subject's existing codes and stores a fresh batch
// of hashes in one transaction
func (r *RecoveryCodeRepository) ReplaceBatch(ctx context.Context, subjectID uint, codeHashes []string) error {
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_id = ?", subjectID).Delete(&models.RecoveryCodeModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete old recovery codes: %w", err)
		}

		codeModels := make([]*models.RecoveryCodeModel, 0, len(codeHashes))
		for _, hash := range codeHashes {
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
	if err != nil {
		r.logger.Errorw("failed to replace recovery code batch", "subject_id", subjectID, "error", err)
		return err
	}

	r.logger.Infow("recovery code batch replaced", "subject_id", subjectID, "count", len(codeHashes))
	return nil
}

// GetUnusedBySubjectID retrieves the subject's unconsumed codes
func (r *RecoveryCodeRepository) GetUnusedBySubjectID(ctx context.Context, subjectID uint) ([]*mfa.RecoveryCode, error) {
	var codeModels []*models.RecoveryCodeModel

	if err := r.db.WithContext(ctx).Where("subject_id = ? AND used_at IS NULL", subjectID).Find(&codeModels).Error; err != nil {
		r.logger.Errorw("failed to get unused recovery codes", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to get recovery codes: %w", err)
	}

	entities, err := r.mapper.ToEntities(codeModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map recovery codes: %w", err)
	}

	return entities, nil
}

// MarkUsed atomically consumes a code. The used_at guard means a concurrent
// submission of the same code gets RowsAffected 0 and loses.
func (r *RecoveryCodeRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.RecoveryCodeModel{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", time.Now().UTC())
	if result.Error != nil {
		r.logger.Errorw("failed to mark recovery code used", "id", id, "error", result.Error)
		return false, fmt.Errorf("failed to mark recovery code used: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// CountUnusedBySubjectID returns how many codes remain
func (r *RecoveryCodeRepository) CountUnusedBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.RecoveryCodeModel{}).
		Where("subject_id = ? AND used_at IS NULL", subjectID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recovery codes: %w", err)
	}

	return count, nil
}

// DeleteBySubjectID removes all of the subject's codes
func (r *RecoveryCodeRepository) DeleteBySubjectID(ctx context.Context, subjectID uint) error {
	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Delete(&models.RecoveryCodeModel{}).Error; err != nil {
		r.logger.Errorw("failed to delete recovery codes", "subject_id", subjectID, "error", err)
		return fmt.Errorf("failed to delete recovery codes: %w", err)
	}

	return nil
}
