package models

import (
	"time"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// SubjectModel represents the database persistence model for subjects. The
// surrounding identity provider owns the account lifecycle; this table carries
// the columns the second-factor subsystem reads and the MFA flag it writes.
type SubjectModel struct {
	ID          uint   `gorm:"primarykey"`
	Email       string `gorm:"uniqueIndex;not null;size:255"`
	DisplayName string `gorm:"size:100;default:''"`
	MFAEnabled  bool   `gorm:"default:false;column:mfa_enabled"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (SubjectModel) TableName() string {
	return constants.TableSubjects
}
