package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"pacsbot/internal/models"
)

// Migrate ensures all worker tables exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.SessionRecord{},
		&models.AutomationToggle{},
		&models.FetchStatus{},
		&models.PatientFetch{},
	}
}
