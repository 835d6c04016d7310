package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"microblog/internal/config"
	"microblog/internal/featureflags"
	"microblog/internal/mail"
	"microblog/internal/models"
	"microblog/internal/notifications"
	"microblog/internal/repository"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Message{},
		&models.Notification{},
		&models.Task{},
	)
	require.NoError(t, err)

	return db
}

// newTestServer wires a Server against an in-memory database with no Redis
// and all feature flags enabled, and returns it with its route table mounted.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db := setupTestDB(t)
	cfg := &config.Config{
		Port:         "8374",
		SecretKey:    "test-secret",
		PostsPerPage: 25,
		FeatureFlags: "search=on,export=on",
		Env:          "test",
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	s := &Server{
		config:           cfg,
		db:               db,
		userRepo:         userRepo,
		followRepo:       followRepo,
		postRepo:         postRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		taskRepo:         taskRepo,
		featureFlags:     featureflags.NewManager(cfg.FeatureFlags),
		mailer:           mail.LogMailer{},
		notifier:         notifications.NewNotifier(nil),
		hub:              notifications.NewHub(),
	}

	s.identityService = service.NewIdentityService(userRepo, followRepo)
	s.notificationService = service.NewNotificationService(notificationRepo, s.notifier)
	s.timelineService = service.NewTimelineService(postRepo)
	s.postService = service.NewPostService(postRepo)
	s.messageService = service.NewMessageService(messageRepo, userRepo, s.notificationService)
	s.searchService = service.NewSearchService(postRepo)
	s.exportService = service.NewExportService(taskRepo, s.notificationService)
	s.resetService = service.NewPasswordResetService(
		s.identityService, s.mailer, cfg.SecretKey, "http://localhost:"+cfg.Port)

	app := fiber.New()
	s.SetupRoutes(app)

	return s, app
}

// featureFlagsOff returns a manager with every flag disabled.
func featureFlagsOff() *featureflags.Manager {
	return featureflags.NewManager("search=off,export=off")
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest), "body: %s", raw)
}

// registerAndLogin creates an account over the API and returns its user ID
// and a bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, username string) (uint, string) {
	t.Helper()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password123",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user struct {
		ID uint `json:"id"`
	}
	decodeBody(t, resp, &user)

	req := httptest.NewRequest(http.MethodPost, "/api/tokens", nil)
	req.Header.Set("Authorization", "Basic "+
		base64.StdEncoding.EncodeToString([]byte(username+":Password123")))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)

	return user.ID, body.Token
}

func authedRequest(method, target, token string, body any) *http.Request {
	req := jsonRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// --- parseID ---

func TestParseID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	t.Run("Valid", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/42", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("NonNumeric", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/abc", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Zero", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/0", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// --- basicAuthCredentials ---

func TestBasicAuthCredentials(t *testing.T) {
	app := fiber.New()
	app.Get("/check", func(c *fiber.Ctx) error {
		user, pass, ok := basicAuthCredentials(c)
		return c.JSON(fiber.Map{"user": user, "pass": pass, "ok": ok})
	})

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"Valid", "Basic " + base64.StdEncoding.EncodeToString([]byte("john:secret")), true},
		{"MissingHeader", "", false},
		{"WrongScheme", "Bearer abc", false},
		{"BadBase64", "Basic %%%", false},
		{"NoColon", "Basic " + base64.StdEncoding.EncodeToString([]byte("john")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/check", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			var body struct {
				User string `json:"user"`
				Pass string `json:"pass"`
				OK   bool   `json:"ok"`
			}
			decodeBody(t, resp, &body)
			assert.Equal(t, tt.ok, body.OK)
			if tt.ok {
				assert.Equal(t, "john", body.User)
				assert.Equal(t, "secret", body.Pass)
			}
		})
	}
}

// --- statusForError ---

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{models.NewNotFoundError("User", "1"), http.StatusNotFound},
		{models.NewValidationError("bad input"), http.StatusBadRequest},
		{models.NewConflictError("taken"), http.StatusConflict},
		{models.NewUnauthorizedError("nope"), http.StatusUnauthorized},
		{models.NewInternalError(fmt.Errorf("boom")), http.StatusInternalServerError},
		{fmt.Errorf("plain error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, statusForError(tt.err))
	}
}
