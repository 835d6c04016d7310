package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarURL(t *testing.T) {
	u := &User{Email: "John@Example.COM "}

	// Gravatar hashes the lowercased, trimmed address.
	canonical := &User{Email: "john@example.com"}
	assert.Equal(t, canonical.AvatarURL(128), u.AvatarURL(128))

	url := u.AvatarURL(64)
	assert.Contains(t, url, "https://www.gravatar.com/avatar/")
	assert.Contains(t, url, "d=identicon")
	assert.Contains(t, url, "s=64")
}

func TestTokenValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	u := &User{Token: "abc", TokenExpiration: now.Add(time.Hour)}
	assert.True(t, u.TokenValid(now))
	assert.False(t, u.TokenValid(now.Add(2*time.Hour)))

	// Expiration exactly at now is already invalid.
	assert.False(t, u.TokenValid(now.Add(time.Hour)))

	empty := &User{TokenExpiration: now.Add(time.Hour)}
	assert.False(t, empty.TokenValid(now))
}

func TestNotificationPayload(t *testing.T) {
	n := &Notification{PayloadJSON: `{"count": 3}`}

	payload, err := n.Payload()
	require.NoError(t, err)
	assert.Equal(t, float64(3), payload["count"])

	empty := &Notification{}
	payload, err = empty.Payload()
	require.NoError(t, err)
	assert.Empty(t, payload)

	broken := &Notification{PayloadJSON: `{`}
	_, err = broken.Payload()
	assert.Error(t, err)
}

func TestNotificationMarshalJSON(t *testing.T) {
	n := Notification{
		ID:          1,
		Name:        NotificationTaskProgress,
		UserID:      2,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		PayloadJSON: `{"task_id":"abc","progress":50}`,
	}

	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var out struct {
		Name    string         `json:"name"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "task_progress", out.Name)
	assert.Equal(t, float64(50), out.Payload["progress"])
	assert.Equal(t, "abc", out.Payload["task_id"])

	// Empty payload renders as an object, not a string or null.
	raw, err = json.Marshal(Notification{Name: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"payload":{}`)
}

func TestAppError(t *testing.T) {
	t.Run("CodesMapToConstructors", func(t *testing.T) {
		tests := []struct {
			err  error
			code string
		}{
			{NewNotFoundError("User", "7"), ErrCodeNotFound},
			{NewValidationError("bad"), ErrCodeValidation},
			{NewConflictError("taken"), ErrCodeConflict},
			{NewUnauthorizedError("nope"), ErrCodeUnauthorized},
			{NewInternalError(errors.New("boom")), ErrCodeInternal},
		}
		for _, tt := range tests {
			var appErr *AppError
			require.True(t, errors.As(tt.err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		}
	})

	t.Run("InternalWrapsCause", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewInternalError(cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("NotFoundNamesResource", func(t *testing.T) {
		err := NewNotFoundError("User", "7")
		assert.Contains(t, err.Error(), "User")
	})
}

func TestUserJSONHidesCredentials(t *testing.T) {
	u := User{
		Username:     "john",
		Email:        "john@example.com",
		PasswordHash: "bcrypt-hash",
		Token:        "secret-token",
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bcrypt-hash")
	assert.NotContains(t, string(raw), "secret-token")
}
