// Package export runs background posts-export tasks: it polls for pending
// tasks, renders each user's posts to JSON, mails the archive to the user,
// and reports progress through the notification stream.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"microblog/internal/mail"
	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"
	"microblog/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultWorkers      = 3
	batchSize           = 16
)

// Worker drains pending export tasks in the background.
type Worker struct {
	taskRepo      repository.TaskRepository
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	notifications *service.NotificationService
	mailer        mail.Mailer

	pollInterval time.Duration
	workers      int

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// NewWorker returns a Worker with the given pool size. Zero or negative
// values fall back to defaults.
func NewWorker(
	taskRepo repository.TaskRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifications *service.NotificationService,
	mailer mail.Mailer,
	workers int,
) *Worker {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Worker{
		taskRepo:      taskRepo,
		postRepo:      postRepo,
		userRepo:      userRepo,
		notifications: notifications,
		mailer:        mailer,
		pollInterval:  defaultPollInterval,
		workers:       workers,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start launches the polling loop. Call Stop to shut it down.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the loop to exit and waits for in-flight tasks to finish.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Drain anything queued before the process started.
	w.RunPending(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunPending(ctx)
		}
	}
}

// RunPending claims one batch of pending tasks and processes it with the
// worker pool. Exported so tests can drive the worker without the ticker.
func (w *Worker) RunPending(ctx context.Context) {
	tasks, err := w.taskRepo.Pending(ctx, batchSize)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to load pending export tasks", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	jobs := make(chan models.Task)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				w.process(ctx, task)
			}
		}()
	}
	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)
	wg.Wait()
}

// exportedPost is one entry in the posts.json archive.
type exportedPost struct {
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// process runs a single export task end to end. The task is marked complete
// even on failure so a broken task cannot wedge the user's export slot
// forever; the failure is logged and counted.
func (w *Worker) process(ctx context.Context, task models.Task) {
	span, ctx := observability.NewSpan(ctx, "export.process",
		trace.WithAttributes(
			attribute.String("task.id", task.ID),
			attribute.Int("user.id", int(task.UserID)),
		))
	defer span.End()

	err := w.exportPosts(ctx, task)
	span.SetError(err)

	if markErr := w.taskRepo.MarkComplete(ctx, task.ID); markErr != nil {
		observability.Logger.ErrorContext(ctx, "failed to mark export task complete",
			"task_id", task.ID, "error", markErr)
	}
	w.progress(ctx, task, 100)

	if err != nil {
		observability.ExportTasksTotal.WithLabelValues("failure").Inc()
		observability.Logger.ErrorContext(ctx, "export task failed",
			"task_id", task.ID, "user_id", task.UserID, "error", err)
		return
	}
	observability.ExportTasksTotal.WithLabelValues("success").Inc()
	observability.Logger.InfoContext(ctx, "export task finished",
		"task_id", task.ID, "user_id", task.UserID)
}

func (w *Worker) exportPosts(ctx context.Context, task models.Task) error {
	user, err := w.userRepo.GetByID(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	posts, err := w.postRepo.AllByUserAscending(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}

	w.progress(ctx, task, 0)

	data := make([]exportedPost, 0, len(posts))
	for i, post := range posts {
		data = append(data, exportedPost{Body: post.Body, Timestamp: post.Timestamp})
		w.progress(ctx, task, 100*(i+1)/len(posts))
	}

	archive, err := json.Marshal(map[string][]exportedPost{"posts": data})
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}

	email := mail.Email{
		To:      []string{user.Email},
		Subject: "[microblog] Your blog posts",
		Body: fmt.Sprintf("Dear %s,\n\nPlease find attached the archive of your posts that you requested.\n",
			user.Username),
		Attachments: []mail.Attachment{{
			Filename:    "posts.json",
			ContentType: "application/json",
			Data:        archive,
		}},
	}
	if err := w.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send archive: %w", err)
	}
	return nil
}

// progress publishes a task_progress notification for the task's owner.
func (w *Worker) progress(ctx context.Context, task models.Task, pct int) {
	if _, err := w.notifications.Add(ctx, task.UserID, models.NotificationTaskProgress,
		map[string]any{"task_id": task.ID, "progress": pct}); err != nil {
		observability.Logger.ErrorContext(ctx, "failed to publish export progress",
			"task_id", task.ID, "error", err)
	}
}
