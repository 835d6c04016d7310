package service

import (
	"testing"

	"microblog/internal/models"
	"microblog/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Message{},
		&models.Notification{},
		&models.Task{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func newTestIdentityService(t *testing.T, db *gorm.DB) *IdentityService {
	t.Helper()
	return NewIdentityService(
		repository.NewUserRepository(db),
		repository.NewFollowRepository(db),
	)
}
