package models

import "time"

// Task names understood by the export worker.
const (
	TaskExportPosts = "export_posts"
)

// Task tracks one background job. The primary key is the job ID assigned at
// launch time; completion is a one-way flag flipped by the worker, progress
// travels through the task_progress notification.
type Task struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Description string    `json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Complete    bool      `gorm:"default:false;index" json:"complete"`
	CreatedAt   time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}
