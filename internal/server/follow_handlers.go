// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a user
// @Description Insert a follow edge from the authenticated user. Following
// @Description yourself or someone you already follow is a no-op.
// @Tags users
// @Produce json
// @Param id path int true "User ID to follow"
// @Success 200 {object} object{following=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.identityService.Follow(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"following": currentUserID(c) != id})
}

// UnfollowUser handles DELETE /api/users/:id/follow
// @Summary Unfollow a user
// @Description Remove the follow edge from the authenticated user. Removing a
// @Description missing edge is a no-op.
// @Tags users
// @Produce json
// @Param id path int true "User ID to unfollow"
// @Success 200 {object} object{following=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.identityService.Unfollow(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"following": false})
}
