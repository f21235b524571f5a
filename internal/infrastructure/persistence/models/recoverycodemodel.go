package models

import (
	"time"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// RecoveryCodeModel represents the database persistence model for recovery codes
type RecoveryCodeModel struct {
	ID        uint   `gorm:"primarykey"`
	SubjectID uint   `gorm:"not null;index"`
	CodeHash  string `gorm:"size:100;not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (RecoveryCodeModel) TableName() string {
	return constants.TableRecoveryCodes
}
