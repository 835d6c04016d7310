package models

import (
	"encoding/json"
	"time"
)

// Well-known notification names.
const (
	NotificationUnreadMessages = "unread_message_count"
	NotificationTaskProgress   = "task_progress"
)

// Notification is a named, user-owned event with an opaque JSON payload.
// At most one notification per (user, name) exists at a time: adding a
// notification replaces any previous one with the same name.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
	PayloadJSON string    `gorm:"type:text" json:"-"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// Payload decodes the notification payload into a generic map.
func (n *Notification) Payload() (map[string]any, error) {
	out := make(map[string]any)
	if n.PayloadJSON == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(n.PayloadJSON), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalJSON renders the payload as a JSON object rather than a string.
func (n Notification) MarshalJSON() ([]byte, error) {
	payload := json.RawMessage(`{}`)
	if n.PayloadJSON != "" {
		payload = json.RawMessage(n.PayloadJSON)
	}
	return json.Marshal(struct {
		ID        uint            `json:"id"`
		Name      string          `json:"name"`
		UserID    uint            `json:"user_id"`
		Timestamp time.Time       `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}{n.ID, n.Name, n.UserID, n.Timestamp, payload})
}
