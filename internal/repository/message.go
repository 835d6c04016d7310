package repository

import (
	"context"
	"time"

	"microblog/internal/models"
	"microblog/internal/observability"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for private messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Received(ctx context.Context, userID uint, limit, offset int) ([]models.Message, int64, error)
	Sent(ctx context.Context, userID uint, limit, offset int) ([]models.Message, int64, error)
	UnreadCount(ctx context.Context, userID uint, since time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	defer observability.TrackQuery("create", "messages")()
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) Received(ctx context.Context, userID uint, limit, offset int) ([]models.Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Message{}).Where("recipient_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var msgs []models.Message
	if err := q.Preload("Sender").Order("timestamp DESC, id DESC").
		Limit(limit).Offset(offset).Find(&msgs).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return msgs, total, nil
}

func (r *messageRepository) Sent(ctx context.Context, userID uint, limit, offset int) ([]models.Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Message{}).Where("sender_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var msgs []models.Message
	if err := q.Preload("Recipient").Order("timestamp DESC, id DESC").
		Limit(limit).Offset(offset).Find(&msgs).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return msgs, total, nil
}

// UnreadCount counts messages received after the user's last read time.
func (r *messageRepository) UnreadCount(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND timestamp > ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
