package repository

import (
	"context"
	"errors"

	"microblog/internal/models"

	"gorm.io/gorm"
)

// TaskRepository defines persistence operations for background tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	MarkComplete(ctx context.Context, id string) error
	InProgress(ctx context.Context, userID uint, name string) (*models.Task, error)
	Pending(ctx context.Context, limit int) ([]models.Task, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository returns a new TaskRepository implementation.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Task", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &task, nil
}

func (r *taskRepository) MarkComplete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("complete", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// InProgress returns the user's incomplete task with the given name, or nil.
func (r *taskRepository) InProgress(ctx context.Context, userID uint, name string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND complete = ?", userID, name, false).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &task, nil
}

// Pending returns incomplete tasks oldest first, for worker pickup.
func (r *taskRepository) Pending(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("complete = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tasks, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tasks, nil
}
