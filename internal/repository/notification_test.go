package repository

import (
	"context"
	"testing"
	"time"

	"microblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "notified")

	t.Run("UpsertReplacesSameName", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &models.Notification{
			Name:        models.NotificationUnreadMessages,
			UserID:      user.ID,
			PayloadJSON: `{"count":1}`,
		}))
		require.NoError(t, repo.Upsert(ctx, &models.Notification{
			Name:        models.NotificationUnreadMessages,
			UserID:      user.ID,
			PayloadJSON: `{"count":2}`,
		}))

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("user_id = ? AND name = ?", user.ID, models.NotificationUnreadMessages).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)

		n, err := repo.GetByName(ctx, user.ID, models.NotificationUnreadMessages)
		require.NoError(t, err)
		require.NotNil(t, n)

		payload, err := n.Payload()
		require.NoError(t, err)
		assert.Equal(t, float64(2), payload["count"])
	})

	t.Run("DifferentNamesCoexist", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &models.Notification{
			Name:        models.NotificationTaskProgress,
			UserID:      user.ID,
			PayloadJSON: `{"progress":50}`,
		}))

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("SinceFiltersAndOrdersAscending", func(t *testing.T) {
		cutoff := time.Now().UTC().Add(-time.Minute)

		items, err := repo.Since(ctx, user.ID, cutoff)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.True(t, items[0].Timestamp.Before(items[1].Timestamp) ||
			items[0].Timestamp.Equal(items[1].Timestamp))

		items, err = repo.Since(ctx, user.ID, time.Now().UTC().Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("GetByNameMissingReturnsNil", func(t *testing.T) {
		n, err := repo.GetByName(ctx, user.ID, "no_such_notification")
		require.NoError(t, err)
		assert.Nil(t, n)
	})
}
