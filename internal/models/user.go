// Package models contains data structures for the application's domain models.
package models

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a registered account.
//
// Token and TokenExpiration implement the opaque API bearer credential: the
// token value is random, stored alongside its expiry, and resolved against
// the users table on every API request.
type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Username            string         `gorm:"uniqueIndex;not null" json:"username"`
	Email               string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string         `gorm:"not null" json:"-"`
	Bio                 string         `gorm:"type:varchar(140)" json:"bio"`
	LastSeen            time.Time      `json:"last_seen"`
	Token               string         `gorm:"index" json:"-"`
	TokenExpiration     time.Time      `json:"-"`
	LastMessageReadTime time.Time      `json:"-"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
	Posts               []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// AvatarURL returns the Gravatar URL for the user's email at the given pixel size.
func (u *User) AvatarURL(size int) string {
	digest := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=%d", digest, size)
}

// TokenValid reports whether the stored token is usable at time now.
func (u *User) TokenValid(now time.Time) bool {
	return u.Token != "" && u.TokenExpiration.After(now)
}
