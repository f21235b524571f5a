package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// SecurityEventModel represents the database persistence model for security events
type SecurityEventModel struct {
	ID        uint           `gorm:"primarykey"`
	SubjectID uint           `gorm:"not null;index:idx_security_events_subject_created,priority:1"`
	Kind      string         `gorm:"size:50;not null"`
	Metadata  datatypes.JSON `gorm:"type:json"`
	IPAddress string         `gorm:"size:45;default:''"`
	UserAgent string         `gorm:"size:500;default:''"`
	CreatedAt time.Time      `gorm:"index:idx_security_events_subject_created,priority:2"`
}

// TableName specifies the table name for GORM
func (SecurityEventModel) TableName() string {
	return constants.TableSecurityEvents
}
