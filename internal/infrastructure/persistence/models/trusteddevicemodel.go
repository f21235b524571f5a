package models

import (
	"time"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// TrustedDeviceModel represents the database persistence model for trusted devices
type TrustedDeviceModel struct {
	ID         uint   `gorm:"primarykey"`
	SID        string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	SubjectID  uint   `gorm:"not null;index"`
	TokenHash  string `gorm:"size:64;not null;uniqueIndex"`
	DeviceName string `gorm:"size:100;default:''"`
	UserAgent  string `gorm:"size:500;default:''"`
	IPAddress  string `gorm:"size:45;default:''"`
	LastSeenAt *time.Time
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
}

// TableName specifies the table name for GORM
func (TrustedDeviceModel) TableName() string {
	return constants.TableTrustedDevices
}
