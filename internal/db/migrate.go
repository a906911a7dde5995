package db

import (
	"fmt"

	"github.com/mhoran/kubesift/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model the store migrates.
func AllModels() []interface{} {
	return []interface{}{
		&models.HistoryEntry{},
	}
}

// AutoMigrate creates or updates the history tables.
func AutoMigrate(database *gorm.DB) error {
	if err := database.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
