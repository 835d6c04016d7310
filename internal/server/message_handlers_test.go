package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	johnID, johnToken := registerAndLogin(t, app, "john")
	susanID, susanToken := registerAndLogin(t, app, "susan")
	_ = johnID

	t.Run("SendAndUnreadCount", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/api/messages/", johnToken,
			map[string]any{"recipient_id": susanID, "body": "hi susan"}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, err = app.Test(authedRequest(http.MethodGet, "/api/messages/unread", susanToken, nil))
		require.NoError(t, err)
		var body struct {
			Count int64 `json:"count"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, int64(1), body.Count)
	})

	t.Run("SelfSendRejected", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/api/messages/", johnToken,
			map[string]any{"recipient_id": johnID, "body": "note to self"}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MissingRecipientRejected", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/api/messages/", johnToken,
			map[string]any{"body": "to nobody"}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("InboxReadZeroesCounter", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/messages/", susanToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var inbox struct {
			Items []struct {
				Body   string `json:"body"`
				Sender struct {
					Username string `json:"username"`
				} `json:"sender"`
			} `json:"items"`
			Total int64 `json:"total"`
		}
		decodeBody(t, resp, &inbox)
		assert.Equal(t, int64(1), inbox.Total)
		require.Len(t, inbox.Items, 1)
		assert.Equal(t, "hi susan", inbox.Items[0].Body)
		assert.Equal(t, "john", inbox.Items[0].Sender.Username)

		resp, err = app.Test(authedRequest(http.MethodGet, "/api/messages/unread", susanToken, nil))
		require.NoError(t, err)
		var body struct {
			Count int64 `json:"count"`
		}
		decodeBody(t, resp, &body)
		assert.Zero(t, body.Count)
	})

	t.Run("SentListsOutbox", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/messages/sent", johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var outbox struct {
			Total int64 `json:"total"`
		}
		decodeBody(t, resp, &outbox)
		assert.Equal(t, int64(1), outbox.Total)
	})
}
