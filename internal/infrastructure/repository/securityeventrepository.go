package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/mappers"
	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// SecurityEventRepository implements the security event repository interface
type SecurityEventRepository struct {
	db     *gorm.DB
	mapper mappers.SecurityEventMapper
	logger logger.Interface
}

// NewSecurityEventRepository creates a new security event repository
func NewSecurityEventRepository(db *gorm.DB, logger logger.Interface) mfa.SecurityEventRepository {
	return &SecurityEventRepository{
		db:     db,
		mapper: mappers.NewSecurityEventMapper(),
		logger: logger,
	}
}

// Create appends an event
func (r *SecurityEventRepository) Create(ctx context.Context, event *mfa.SecurityEvent) error {
	model, err := r.mapper.ToModel(event)
	if err != nil {
		r.logger.Errorw("failed to map security event entity to model", "error", err)
		return fmt.Errorf("failed to map security event entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create security event in database", "error", err)
		return fmt.Errorf("failed to create security event: %w", err)
	}

	return nil
}

// ListBySubjectID returns the subject's most recent events, newest first
func (r *SecurityEventRepository) ListBySubjectID(ctx context.Context, subjectID uint, limit, offset int) ([]*mfa.SecurityEvent, error) {
	var eventModels []*models.SecurityEventModel

	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&eventModels).Error; err != nil {
		r.logger.Errorw("failed to list security events", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}

	entities, err := r.mapper.ToEntities(eventModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map security events: %w", err)
	}

	return entities, nil
}

// CountBySubjectID returns the subject's total event count
func (r *SecurityEventRepository) CountBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.SecurityEventModel{}).Where("subject_id = ?", subjectID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}

	return count, nil
}
