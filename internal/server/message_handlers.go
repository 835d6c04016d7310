// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages
// @Summary Send a private message
// @Tags messages
// @Accept json
// @Produce json
// @Param request body object{recipient_id=int,body=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		RecipientID uint   `json:"recipient_id"`
		Body        string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.RecipientID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Recipient is required"))
	}

	msg, err := s.messageService.Send(c.UserContext(), currentUserID(c), req.RecipientID, req.Body)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetMessages handles GET /api/messages
// @Summary Get received messages
// @Description The authenticated user's inbox, newest first. Reading the
// @Description inbox marks it read and zeroes the unread counter.
// @Tags messages
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{}
// @Security BearerAuth
// @Router /messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	p := s.parsePagination(c)
	msgs, total, err := s.messageService.Received(c.UserContext(), currentUserID(c), p.Page, p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(msgs, total, p))
}

// GetSentMessages handles GET /api/messages/sent
// @Summary Get sent messages
// @Tags messages
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{}
// @Security BearerAuth
// @Router /messages/sent [get]
func (s *Server) GetSentMessages(c *fiber.Ctx) error {
	p := s.parsePagination(c)
	msgs, total, err := s.messageService.Sent(c.UserContext(), currentUserID(c), p.Page, p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(msgs, total, p))
}

// GetUnreadCount handles GET /api/messages/unread
// @Summary Get the unread message count
// @Tags messages
// @Produce json
// @Success 200 {object} object{count=int}
// @Security BearerAuth
// @Router /messages/unread [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.messageService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
