package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationJSON struct {
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

func TestNotificationEndpoint(t *testing.T) {
	_, app := newTestServer(t)

	johnID, johnToken := registerAndLogin(t, app, "john")
	susanID, susanToken := registerAndLogin(t, app, "susan")
	_ = johnID

	t.Run("EmptyWithoutActivity", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/notifications", johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var items []notificationJSON
		decodeBody(t, resp, &items)
		assert.Empty(t, items)
	})

	t.Run("MessageProducesUnreadCountNotification", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/api/messages/", johnToken,
			map[string]any{"recipient_id": susanID, "body": "ping"}))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = app.Test(authedRequest(http.MethodGet, "/api/notifications", susanToken, nil))
		require.NoError(t, err)
		var items []notificationJSON
		decodeBody(t, resp, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "unread_message_count", items[0].Name)
		assert.Equal(t, float64(1), items[0].Payload["count"])
		assert.False(t, items[0].Timestamp.IsZero())
	})

	t.Run("SinceFiltersOldNotifications", func(t *testing.T) {
		future := float64(time.Now().Add(time.Hour).Unix())
		resp, err := app.Test(authedRequest(http.MethodGet,
			fmt.Sprintf("/api/notifications?since=%f", future), susanToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var items []notificationJSON
		decodeBody(t, resp, &items)
		assert.Empty(t, items)
	})

	t.Run("NegativeSinceRejected", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet,
			"/api/notifications?since=-5", susanToken, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
