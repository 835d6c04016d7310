// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"microblog/internal/featureflags"
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LaunchExport handles POST /api/export
// @Summary Launch a posts export
// @Description Queue a background task that mails the user a JSON archive of
// @Description their posts. Only one export may be in progress per user.
// @Tags tasks
// @Produce json
// @Success 202 {object} models.Task
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /export [post]
func (s *Server) LaunchExport(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if !s.featureFlags.Enabled(featureflags.FlagExport, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Feature", featureflags.FlagExport))
	}

	task, err := s.exportService.LaunchExport(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(task)
}

// ListTasks handles GET /api/tasks
// @Summary List the authenticated user's background tasks
// @Tags tasks
// @Produce json
// @Success 200 {array} models.Task
// @Security BearerAuth
// @Router /tasks [get]
func (s *Server) ListTasks(c *fiber.Ctx) error {
	tasks, err := s.exportService.ListTasks(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(tasks)
}

// GetTask handles GET /api/tasks/:id
// @Summary Get a background task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (s *Server) GetTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
	}

	task, err := s.exportService.GetTask(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}
