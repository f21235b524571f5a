package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// WebAuthnCredentialModel represents the database persistence model for WebAuthn credentials
type WebAuthnCredentialModel struct {
	ID              uint           `gorm:"primarykey"`
	SID             string         `gorm:"uniqueIndex;not null;size:50;column:sid"`
	SubjectID       uint           `gorm:"not null;index"`
	CredentialID    []byte         `gorm:"type:varbinary(1024);not null;uniqueIndex:idx_webauthn_credentials_credential_id,length:255"`
	PublicKey       []byte         `gorm:"type:blob;not null"`
	AttestationType string         `gorm:"size:50;default:none"`
	AAGUID          []byte         `gorm:"type:varbinary(16);column:aaguid"`
	SignCount       uint32         `gorm:"default:0"`
	BackupEligible  bool           `gorm:"default:false"` // WebAuthn BE flag
	BackupState     bool           `gorm:"default:false"` // WebAuthn BS flag
	Transports      datatypes.JSON `gorm:"type:json"`     // transport hints
	Nickname        string         `gorm:"size:100;default:''"`
	LastUsedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (WebAuthnCredentialModel) TableName() string {
	return constants.TableWebAuthnCredentials
}
