package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/models"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Fund{},
		&models.FundTransaction{},
		&models.Cost{},
		&models.ExchangeRate{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
