// Package migration keeps the database schema in step with the persistence
// models. The schema is small and append-only, so GORM's AutoMigrate is the
// whole strategy; versioned SQL scripts would be overhead without benefit here.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/inkwell-press/inkwell/internal/infrastructure/persistence/models"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// AutoMigrateModels lists every persistence model in dependency order
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.SubjectModel{},
		&models.TotpEnrollmentModel{},
		&models.WebAuthnCredentialModel{},
		&models.RecoveryCodeModel{},
		&models.TrustedDeviceModel{},
		&models.SecurityEventModel{},
	}
}

// Run applies the schema for all persistence models
func Run(db *gorm.DB, log logger.Interface) error {
	log.Infow("running schema migration", "models", len(AutoMigrateModels()))

	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	log.Infow("schema migration completed")
	return nil
}

// Status reports which model tables exist in the connected database
func Status(db *gorm.DB) map[string]bool {
	status := make(map[string]bool)
	for _, model := range AutoMigrateModels() {
		if tabler, ok := model.(interface{ TableName() string }); ok {
			status[tabler.TableName()] = db.Migrator().HasTable(model)
		}
	}
	return status
}
