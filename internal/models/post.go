package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a single microblog entry. Posts are immutable after creation;
// Timestamp is the publication time (UTC) and drives all feed ordering.
type Post struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Body      string         `gorm:"type:varchar(280);not null" json:"body"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Language  string         `gorm:"type:varchar(5)" json:"language,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate stamps the publication time when the caller did not set one.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	return nil
}
