// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"microblog/internal/featureflags"
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SearchPosts handles GET /api/search
// @Summary Search posts
// @Description Full-text search over post bodies, newest first
// @Tags search
// @Produce json
// @Param q query string true "Search query"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if !s.featureFlags.Enabled(featureflags.FlagSearch, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Feature", featureflags.FlagSearch))
	}

	p := s.parsePagination(c)
	posts, total, err := s.searchService.Posts(c.UserContext(), c.Query("q"), p.Page, p.PerPage)
	if err != nil {
		return fail(c, err)
	}

	resp := pagedResponse(posts, total, p)
	resp["query"] = c.Query("q")
	return c.JSON(resp)
}
