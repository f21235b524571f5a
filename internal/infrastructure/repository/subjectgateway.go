package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// SubjectGateway implements the subject gateway against the shared subjects
// table. The identity provider owns the rows; this repository reads them and
// flips the MFA flag.
type SubjectGateway struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSubjectGateway creates a new SubjectGateway
func NewSubjectGateway(db *gorm.DB, logger logger.Interface) mfa.SubjectGateway {
	return &SubjectGateway{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a subject by its ID
func (r *SubjectGateway) FindByID(ctx context.Context, id uint) (*mfa.Subject, error) {
	var model models.SubjectModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("subject not found")
		}
		r.logger.Errorw("failed to get subject", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	return &mfa.Subject{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		MFAEnabled:  model.MFAEnabled,
	}, nil
}

// SetMFAEnabled flips the subject's MFA flag
func (r *SubjectGateway) SetMFAEnabled(ctx context.Context, id uint, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&models.SubjectModel{}).
		Where("id = ?", id).
		Update("mfa_enabled", enabled)
	if result.Error != nil {
		r.logger.Errorw("failed to update subject MFA flag", "id", id, "error", result.Error)
		return fmt.Errorf("failed to update subject MFA flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("subject not found")
	}

	r.logger.Infow("subject MFA flag updated", "id", id, "enabled", enabled)
	return nil
}
