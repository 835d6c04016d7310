package service

import (
	"context"
	"time"

	"microblog/internal/models"
	"microblog/internal/repository"

	"github.com/google/uuid"
)

// ExportService launches and tracks background export tasks. The actual work
// is done by the export worker, which polls for pending tasks.
type ExportService struct {
	taskRepo      repository.TaskRepository
	notifications *NotificationService
}

// NewExportService returns a new ExportService.
func NewExportService(taskRepo repository.TaskRepository, notifications *NotificationService) *ExportService {
	return &ExportService{taskRepo: taskRepo, notifications: notifications}
}

// LaunchExport queues a posts export for the user. Only one export may be in
// flight per user at a time.
func (s *ExportService) LaunchExport(ctx context.Context, userID uint) (*models.Task, error) {
	existing, err := s.taskRepo.InProgress(ctx, userID, models.TaskExportPosts)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("An export task is currently in progress")
	}

	task := &models.Task{
		ID:          uuid.New().String(),
		Name:        models.TaskExportPosts,
		Description: "Exporting posts...",
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	if _, err := s.notifications.Add(ctx, userID, models.NotificationTaskProgress,
		map[string]any{"task_id": task.ID, "progress": 0}); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask returns a task by ID, restricted to its owner.
func (s *ExportService) GetTask(ctx context.Context, taskID string, userID uint) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, models.NewNotFoundError("Task", taskID)
	}
	return task, nil
}

// ListTasks returns the user's tasks, newest first.
func (s *ExportService) ListTasks(ctx context.Context, userID uint) ([]models.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID)
}
