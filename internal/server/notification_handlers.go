// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary Poll notifications
// @Description Notifications for the authenticated user newer than `since`
// @Description (unix timestamp with fractional seconds), oldest first.
// @Tags notifications
// @Produce json
// @Param since query number false "Unix timestamp lower bound"
// @Success 200 {array} models.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		secs := c.QueryFloat("since", -1)
		if secs < 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid since parameter"))
		}
		since = time.Unix(0, int64(secs*float64(time.Second))).UTC()
	}

	items, err := s.notificationService.Since(c.UserContext(), currentUserID(c), since)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return c.JSON(items)
}
