package export

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"microblog/internal/mail"
	"microblog/internal/models"
	"microblog/internal/notifications"
	"microblog/internal/repository"
	"microblog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Email
}

func (m *recordingMailer) Send(_ context.Context, email mail.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) all() []mail.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Email(nil), m.sent...)
}

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

func TestWorkerRunPending(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationService := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		notifications.NewNotifier(nil),
	)
	exportService := service.NewExportService(taskRepo, notificationService)

	user := &models.User{
		Username:     "exporter",
		Email:        "exporter@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, userRepo.Create(ctx, user))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, body := range []string{"first post", "second post"} {
		require.NoError(t, postRepo.Create(ctx, &models.Post{
			Body:      body,
			UserID:    user.ID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	mailer := &recordingMailer{}
	worker := NewWorker(taskRepo, postRepo, userRepo, notificationService, mailer, 1)

	task, err := exportService.LaunchExport(ctx, user.ID)
	require.NoError(t, err)

	worker.RunPending(ctx)

	t.Run("TaskMarkedComplete", func(t *testing.T) {
		got, err := taskRepo.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, got.Complete)
	})

	t.Run("ArchiveMailedAsAttachment", func(t *testing.T) {
		sent := mailer.all()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"exporter@example.com"}, sent[0].To)
		require.Len(t, sent[0].Attachments, 1)
		assert.Equal(t, "posts.json", sent[0].Attachments[0].Filename)
		assert.Equal(t, "application/json", sent[0].Attachments[0].ContentType)

		var archive struct {
			Posts []struct {
				Body      string    `json:"body"`
				Timestamp time.Time `json:"timestamp"`
			} `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(sent[0].Attachments[0].Data, &archive))
		require.Len(t, archive.Posts, 2)
		assert.Equal(t, "first post", archive.Posts[0].Body)
		assert.Equal(t, "second post", archive.Posts[1].Body)
	})

	t.Run("FinalProgressNotificationIsHundred", func(t *testing.T) {
		n, err := notificationService.GetByName(ctx, user.ID, models.NotificationTaskProgress)
		require.NoError(t, err)
		require.NotNil(t, n)

		var payload struct {
			TaskID   string `json:"task_id"`
			Progress int    `json:"progress"`
		}
		require.NoError(t, json.Unmarshal([]byte(n.PayloadJSON), &payload))
		assert.Equal(t, task.ID, payload.TaskID)
		assert.Equal(t, 100, payload.Progress)
	})

	t.Run("SlotFreedForNextExport", func(t *testing.T) {
		_, err := exportService.LaunchExport(ctx, user.ID)
		require.NoError(t, err)
	})
}

func TestWorkerHandlesUserWithNoPosts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationService := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		notifications.NewNotifier(nil),
	)

	user := &models.User{
		Username:     "quiet",
		Email:        "quiet@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, userRepo.Create(ctx, user))

	mailer := &recordingMailer{}
	worker := NewWorker(taskRepo, postRepo, userRepo, notificationService, mailer, 2)

	require.NoError(t, taskRepo.Create(ctx, &models.Task{
		ID:     "empty-export",
		Name:   models.TaskExportPosts,
		UserID: user.ID,
	}))

	worker.RunPending(ctx)

	got, err := taskRepo.GetByID(ctx, "empty-export")
	require.NoError(t, err)
	assert.True(t, got.Complete)

	sent := mailer.all()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"posts": []}`, string(sent[0].Attachments[0].Data))
}

func TestWorkerStartStop(t *testing.T) {
	db := setupTestDB(t)

	taskRepo := repository.NewTaskRepository(db)
	notificationService := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		notifications.NewNotifier(nil),
	)
	worker := NewWorker(taskRepo, repository.NewPostRepository(db),
		repository.NewUserRepository(db), notificationService, &recordingMailer{}, 1)

	worker.Start(context.Background())
	worker.Stop()
}
