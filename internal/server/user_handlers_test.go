package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileResponse struct {
	User struct {
		ID             uint   `json:"id"`
		Username       string `json:"username"`
		Bio            string `json:"bio"`
		AvatarURL      string `json:"avatar_url"`
		FollowerCount  int64  `json:"follower_count"`
		FollowingCount int64  `json:"following_count"`
		PostCount      int64  `json:"post_count"`
	} `json:"user"`
	Following          bool   `json:"following"`
	Email              string `json:"email"`
	UnreadMessageCount int64  `json:"unread_message_count"`
}

func TestUserEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	johnID, johnToken := registerAndLogin(t, app, "john")
	susanID, susanToken := registerAndLogin(t, app, "susan")

	createPost(t, app, susanToken, "susan's post")

	t.Run("GetMe", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/me", johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body profileResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "john", body.User.Username)
		assert.Equal(t, "john@example.com", body.Email)
		assert.Contains(t, body.User.AvatarURL, "gravatar.com/avatar/")
		assert.Zero(t, body.UnreadMessageCount)
	})

	t.Run("GetUserIncludesCountsAndFollowingFlag", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet,
			fmt.Sprintf("/api/users/%d", susanID), johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body profileResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "susan", body.User.Username)
		assert.Equal(t, int64(1), body.User.PostCount)
		assert.False(t, body.Following)
	})

	t.Run("MissingUserIsNotFound", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/users/99999", johnToken, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("UpdateMe", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPut, "/api/me", johnToken,
			map[string]string{"bio": "gopher at large"}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(authedRequest(http.MethodGet, "/api/me", johnToken, nil))
		require.NoError(t, err)
		var body profileResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "gopher at large", body.User.Bio)
	})

	t.Run("UpdateMeToTakenUsernameConflicts", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPut, "/api/me", johnToken,
			map[string]string{"username": "susan"}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("ListUsers", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/users/", johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Items []struct {
				Username string `json:"username"`
			} `json:"items"`
			Total   int64 `json:"total"`
			Page    int   `json:"page"`
			PerPage int   `json:"per_page"`
		}
		decodeBody(t, resp, &body)
		assert.Len(t, body.Items, 2)
		assert.Equal(t, int64(2), body.Total)
		assert.Equal(t, 1, body.Page)
		assert.Equal(t, 25, body.PerPage)
	})

	_ = johnID
	_ = susanID
}

func TestFollowEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	johnID, johnToken := registerAndLogin(t, app, "john")
	susanID, susanToken := registerAndLogin(t, app, "susan")

	followURL := fmt.Sprintf("/api/users/%d/follow", susanID)

	t.Run("FollowSetsFlag", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, followURL, johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Following bool `json:"following"`
		}
		decodeBody(t, resp, &body)
		assert.True(t, body.Following)
	})

	t.Run("RepeatFollowIsIdempotent", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, followURL, johnToken, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(authedRequest(http.MethodGet,
			fmt.Sprintf("/api/users/%d/followers", susanID), johnToken, nil))
		require.NoError(t, err)
		var body struct {
			Total int64 `json:"total"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, int64(1), body.Total)
	})

	t.Run("FollowersAndFollowingLists", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet,
			fmt.Sprintf("/api/users/%d/followers", susanID), susanToken, nil))
		require.NoError(t, err)
		var followers struct {
			Items []struct {
				Username string `json:"username"`
			} `json:"items"`
		}
		decodeBody(t, resp, &followers)
		require.Len(t, followers.Items, 1)
		assert.Equal(t, "john", followers.Items[0].Username)

		resp, err = app.Test(authedRequest(http.MethodGet,
			fmt.Sprintf("/api/users/%d/following", johnID), johnToken, nil))
		require.NoError(t, err)
		var following struct {
			Items []struct {
				Username string `json:"username"`
			} `json:"items"`
		}
		decodeBody(t, resp, &following)
		require.Len(t, following.Items, 1)
		assert.Equal(t, "susan", following.Items[0].Username)
	})

	t.Run("FollowMissingUserIsNotFound", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/api/users/99999/follow", johnToken, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("UnfollowClearsFlag", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodDelete, followURL, johnToken, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Following bool `json:"following"`
		}
		decodeBody(t, resp, &body)
		assert.False(t, body.Following)

		// Unfollowing again is still fine.
		resp, err = app.Test(authedRequest(http.MethodDelete, followURL, johnToken, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("UserPostsChecksExistence", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodGet, "/api/users/99999/posts", johnToken, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
