package repository

import (
	"context"
	"errors"
	"time"

	"microblog/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Upsert(ctx context.Context, n *models.Notification) error
	Since(ctx context.Context, userID uint, since time.Time) ([]models.Notification, error)
	GetByName(ctx context.Context, userID uint, name string) (*models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Upsert replaces any existing notification with the same (user, name) pair,
// so clients always see a single, current entry per notification name.
func (r *notificationRepository) Upsert(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND name = ?", n.UserID, n.Name).
			Delete(&models.Notification{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if n.Timestamp.IsZero() {
			n.Timestamp = time.Now().UTC()
		}
		if err := tx.Create(n).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *notificationRepository) Since(ctx context.Context, userID uint, since time.Time) ([]models.Notification, error) {
	var out []models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND timestamp > ?", userID, since).
		Order("timestamp ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *notificationRepository) GetByName(ctx context.Context, userID uint, name string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &n, nil
}
