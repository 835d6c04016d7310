// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{body=string,language=string} true "Post body and optional language tag"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Body     string `json:"body"`
		Language string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(c.UserContext(), currentUserID(c), req.Body, req.Language)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Remove one of the authenticated user's own posts
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Timeline handles GET /api/timeline
// @Summary Get the authenticated user's timeline
// @Description Posts by the user and everyone they follow, newest first
// @Tags timeline
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{}
// @Security BearerAuth
// @Router /timeline [get]
func (s *Server) Timeline(c *fiber.Ctx) error {
	p := s.parsePagination(c)
	posts, total, err := s.timelineService.FollowingPosts(c.UserContext(), currentUserID(c), p.Page, p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(posts, total, p))
}

// Explore handles GET /api/explore
// @Summary Browse all posts
// @Description Every post on the site, newest first. No authentication needed.
// @Tags timeline
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{}
// @Router /explore [get]
func (s *Server) Explore(c *fiber.Ctx) error {
	p := s.parsePagination(c)
	posts, total, err := s.timelineService.Explore(c.UserContext(), p.Page, p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(posts, total, p))
}
