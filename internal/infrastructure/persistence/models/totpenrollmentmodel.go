package models

import (
	"time"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// TotpEnrollmentModel represents the database persistence model for TOTP enrollments
type TotpEnrollmentModel struct {
	ID           uint   `gorm:"primarykey"`
	SubjectID    uint   `gorm:"not null;uniqueIndex"`
	Secret       string `gorm:"size:64;not null"`
	ActivatedAt  *time.Time
	LastUsedStep *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (TotpEnrollmentModel) TableName() string {
	return constants.TableTotpEnrollments
}
