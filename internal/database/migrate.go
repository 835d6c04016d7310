package database

import (
	"fmt"
	"log/slog"

	"microblog/internal/models"
	"microblog/internal/observability"

	"gorm.io/gorm"
)

// AllModels returns every model registered for schema migration, in
// dependency order (referenced tables first).
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Message{},
		&models.Notification{},
		&models.Task{},
	}
}

// Migrate runs GORM auto-migration for all registered models.
func Migrate(db *gorm.DB) error {
	for _, model := range AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto-migrate %T: %w", model, err)
		}
	}
	observability.Logger.Info("database migration complete",
		slog.Int("models", len(AllModels())))
	return nil
}
