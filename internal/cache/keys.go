package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	userKeyPrefix  = "user:%d"
	tokenKeyPrefix = "token:%s"
)

const (
	// UserTTL bounds staleness of cached user rows.
	UserTTL = 5 * time.Minute
	// TokenTTL bounds staleness of cached token resolutions. Kept short so
	// revocation propagates quickly.
	TokenTTL = 30 * time.Second
)

// UserKey returns the cache key for a user row.
func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

// TokenKey returns the cache key for a resolved API token.
func TokenKey(token string) string {
	return fmt.Sprintf(tokenKeyPrefix, token)
}

// Invalidate removes a key, best effort.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser drops the cached row for a user.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateToken drops a cached token resolution.
func InvalidateToken(ctx context.Context, token string) {
	if token != "" {
		Invalidate(ctx, TokenKey(token))
	}
}
