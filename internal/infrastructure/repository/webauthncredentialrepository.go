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

// WebAuthnCredentialRepository implements the WebAuthn credential repository interface
type WebAuthnCredentialRepository struct {
	db     *gorm.DB
	mapper mappers.WebAuthnCredentialMapper
	logger logger.Interface
}

// NewWebAuthnCredentialRepository creates a new WebAuthn credential repository
func NewWebAuthnCredentialRepository(db *gorm.DB, logger logger.Interface) mfa.WebAuthnCredentialRepository {
	return &WebAuthnCredentialRepository{
		db:     db,
		mapper: mappers.NewWebAuthnCredentialMapper(),
		logger: logger,
	}
}

// Create creates a new credential
func (r *WebAuthnCredentialRepository) Create(ctx context.Context, credential *mfa.WebAuthnCredential) error {
	model, err := r.mapper.ToModel(credential)
	if err != nil {
		r.logger.Errorw("failed to map WebAuthn credential entity to model", "error", err)
		return fmt.Errorf("failed to map WebAuthn credential entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create WebAuthn credential in database", "error", err)
		return fmt.Errorf("failed to create WebAuthn credential: %w", err)
	}

	if err := credential.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set WebAuthn credential ID: %w", err)
	}

	r.logger.Infow("WebAuthn credential created", "id", model.ID, "subject_id", model.SubjectID)
	return nil
}

// CreateWithRecoveryBatch creates the credential and stores the recovery code
// batch in the same transaction
func (r *WebAuthnCredentialRepository) CreateWithRecoveryBatch(ctx context.Context, credential *mfa.WebAuthnCredential, recoveryHashes []string) error {
	model, err := r.mapper.ToModel(credential)
	if err != nil {
		return fmt.Errorf("failed to map WebAuthn credential entity: %w", err)
	}

	now := time.Now().UTC()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create WebAuthn credential: %w", err)
		}

		if err := tx.Where("subject_id = ?", model.SubjectID).Delete(&models.RecoveryCodeModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear old recovery codes: %w", err)
		}

		codeModels := make([]*models.RecoveryCodeModel, 0, len(recoveryHashes))
		for _, hash := range recoveryHashes {
			codeModels = append(codeModels, &models.RecoveryCodeModel{
				SubjectID: model.SubjectID,
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
		r.logger.Errorw("failed to create WebAuthn credential with recovery batch", "subject_id", model.SubjectID, "error", err)
		return err
	}

	if err := credential.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set WebAuthn credential ID: %w", err)
	}

	r.logger.Infow("WebAuthn credential created with recovery batch", "id", model.ID, "subject_id", model.SubjectID)
	return nil
}

// GetBySID retrieves a credential by external SID (wac_xxx)
func (r *WebAuthnCredentialRepository) GetBySID(ctx context.Context, sid string) (*mfa.WebAuthnCredential, error) {
	var model models.WebAuthnCredentialModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewCredentialNotFoundError()
		}
		r.logger.Errorw("failed to get WebAuthn credential by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get WebAuthn credential: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map WebAuthn credential: %w", err)
	}

	return entity, nil
}

// GetByCredentialID retrieves a credential by raw WebAuthn credential ID
func (r *WebAuthnCredentialRepository) GetByCredentialID(ctx context.Context, credentialID []byte) (*mfa.WebAuthnCredential, error) {
	var model models.WebAuthnCredentialModel

	if err := r.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewCredentialNotFoundError()
		}
		r.logger.Errorw("failed to get WebAuthn credential by credential ID", "error", err)
		return nil, fmt.Errorf("failed to get WebAuthn credential: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map WebAuthn credential: %w", err)
	}

	return entity, nil
}

// GetBySubjectID retrieves all credentials for a subject
func (r *WebAuthnCredentialRepository) GetBySubjectID(ctx context.Context, subjectID uint) ([]*mfa.WebAuthnCredential, error) {
	var credentialModels []*models.WebAuthnCredentialModel

	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Order("created_at DESC").Find(&credentialModels).Error; err != nil {
		r.logger.Errorw("failed to get WebAuthn credentials by subject ID", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to get WebAuthn credentials: %w", err)
	}

	entities, err := r.mapper.ToEntities(credentialModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map WebAuthn credentials: %w", err)
	}

	return entities, nil
}

// Update persists nickname and bookkeeping changes
func (r *WebAuthnCredentialRepository) Update(ctx context.Context, credential *mfa.WebAuthnCredential) error {
	model, err := r.mapper.ToModel(credential)
	if err != nil {
		return fmt.Errorf("failed to map WebAuthn credential entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update WebAuthn credential", "id", model.ID, "error", err)
		return fmt.Errorf("failed to update WebAuthn credential: %w", err)
	}

	return nil
}

// UpdateSignCount atomically applies the new signature counter, guarded on the
// previously observed value. The guard also stamps last_used_at so the
// accepted assertion is recorded in the same write.
func (r *WebAuthnCredentialRepository) UpdateSignCount(ctx context.Context, id uint, oldCount, newCount uint32) (bool, error) {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.WebAuthnCredentialModel{}).
		Where("id = ? AND sign_count = ?", id, oldCount).
		Updates(map[string]interface{}{
			"sign_count":   newCount,
			"last_used_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update WebAuthn sign count", "id", id, "error", result.Error)
		return false, fmt.Errorf("failed to update sign count: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// DeleteBySID deletes a credential by external SID, scoped to the subject
func (r *WebAuthnCredentialRepository) DeleteBySID(ctx context.Context, subjectID uint, sid string) error {
	result := r.db.WithContext(ctx).Where("subject_id = ? AND sid = ?", subjectID, sid).Delete(&models.WebAuthnCredentialModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete WebAuthn credential", "sid", sid, "error", result.Error)
		return fmt.Errorf("failed to delete WebAuthn credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewCredentialNotFoundError()
	}

	r.logger.Infow("WebAuthn credential deleted", "subject_id", subjectID, "sid", sid)
	return nil
}

// CountBySubjectID returns the number of credentials for a subject
func (r *WebAuthnCredentialRepository) CountBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.WebAuthnCredentialModel{}).Where("subject_id = ?", subjectID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count WebAuthn credentials: %w", err)
	}

	return count, nil
}

// ExistsByCredentialID checks whether a raw credential ID is registered
func (r *WebAuthnCredentialRepository) ExistsByCredentialID(ctx context.Context, credentialID []byte) (bool, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.WebAuthnCredentialModel{}).Where("credential_id = ?", credentialID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check WebAuthn credential existence: %w", err)
	}

	return count > 0, nil
}
