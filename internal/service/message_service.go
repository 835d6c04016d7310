package service

import (
	"context"
	"time"

	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/validation"
)

// MessageService handles private messages between users, including the unread
// counter notification.
type MessageService struct {
	messageRepo   repository.MessageRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	now           func() time.Time
}

// NewMessageService returns a new MessageService.
func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notificationService *NotificationService,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		notifications: notificationService,
		now:           time.Now,
	}
}

// Send delivers a private message and bumps the recipient's unread counter
// notification.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID uint, body string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, models.NewValidationError("You cannot send a message to yourself")
	}
	if err := validation.ValidateMessageBody(body); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		Timestamp:   s.now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	unread, err := s.messageRepo.UnreadCount(ctx, recipientID, recipient.LastMessageReadTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.notifications.Add(ctx, recipientID, models.NotificationUnreadMessages,
		map[string]any{"count": unread}); err != nil {
		return nil, err
	}
	return msg, nil
}

// Received returns one page of the user's inbox, newest first, marks the
// mailbox read, and zeroes the unread counter notification.
func (s *MessageService) Received(ctx context.Context, userID uint, page, perPage int) ([]models.Message, int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	user.LastMessageReadTime = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, 0, err
	}
	if _, err := s.notifications.Add(ctx, userID, models.NotificationUnreadMessages,
		map[string]any{"count": int64(0)}); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(page, perPage)
	return s.messageRepo.Received(ctx, userID, limit, offset)
}

// Sent returns one page of messages the user has sent, newest first.
func (s *MessageService) Sent(ctx context.Context, userID uint, page, perPage int) ([]models.Message, int64, error) {
	limit, offset := pageBounds(page, perPage)
	return s.messageRepo.Sent(ctx, userID, limit, offset)
}

// UnreadCount returns the number of messages received since the user's last
// mailbox read.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.messageRepo.UnreadCount(ctx, userID, user.LastMessageReadTime)
}
