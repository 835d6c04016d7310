package service

import (
	"context"
	"encoding/json"
	"time"

	"microblog/internal/models"
	"microblog/internal/notifications"
	"microblog/internal/repository"
)

// NotificationService maintains per-user notification state and pushes updates
// to live listeners.
type NotificationService struct {
	repo     repository.NotificationRepository
	notifier *notifications.Notifier
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(repo repository.NotificationRepository, notifier *notifications.Notifier) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

// Add records a notification for the user, replacing any existing entry with
// the same name, and publishes it to the user's live stream.
func (s *NotificationService) Add(ctx context.Context, userID uint, name string, payload map[string]any) (*models.Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	n := &models.Notification{
		Name:        name,
		UserID:      userID,
		Timestamp:   time.Now().UTC(),
		PayloadJSON: string(raw),
	}
	if err := s.repo.Upsert(ctx, n); err != nil {
		return nil, err
	}

	if wire, err := json.Marshal(n); err == nil {
		// Live delivery is best effort; the row is the durable record.
		_ = s.notifier.PublishUser(ctx, userID, string(wire))
	}
	return n, nil
}

// Since returns the user's notifications newer than the given time, oldest
// first, matching the polling contract of the notifications endpoint.
func (s *NotificationService) Since(ctx context.Context, userID uint, since time.Time) ([]models.Notification, error) {
	return s.repo.Since(ctx, userID, since)
}

// GetByName returns the user's current notification with the given name, or
// nil if none exists.
func (s *NotificationService) GetByName(ctx context.Context, userID uint, name string) (*models.Notification, error) {
	return s.repo.GetByName(ctx, userID, name)
}
