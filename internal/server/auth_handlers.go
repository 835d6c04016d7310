// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"microblog/internal/models"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register a new account
// @Description Create a new user account with username, email, and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	user, err := s.identityService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(c, err)
	}

	c.Set("Location", "/api/users/"+itoa(user.ID))
	return c.Status(fiber.StatusCreated).JSON(user)
}

// IssueToken handles POST /api/tokens
// @Summary Issue an API token
// @Description Exchange HTTP basic auth credentials for a bearer token
// @Tags auth
// @Produce json
// @Success 200 {object} object{token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /tokens [post]
func (s *Server) IssueToken(c *fiber.Ctx) error {
	username, password, ok := basicAuthCredentials(c)
	if !ok {
		c.Set("WWW-Authenticate", `Basic realm="microblog"`)
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Basic authentication required"))
	}

	user, err := s.identityService.Authenticate(c.UserContext(), username, password)
	if err != nil {
		return fail(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.identityService.IssueToken(c.UserContext(), user.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

// RevokeToken handles DELETE /api/tokens
// @Summary Revoke the current API token
// @Description Expire the bearer token used to authenticate this request
// @Tags auth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tokens [delete]
func (s *Server) RevokeToken(c *fiber.Ctx) error {
	if err := s.identityService.RevokeToken(c.UserContext(), currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RequestPasswordReset handles POST /api/auth/reset-password
// @Summary Request a password reset
// @Description Email a time-limited reset link to the account owner
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 202 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/reset-password [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	if err := s.resetService.RequestReset(c.UserContext(), req.Email); err != nil {
		return fail(c, err)
	}

	// Always 202: the response must not reveal whether the email exists.
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Check your email for the instructions to reset your password",
	})
}

// ConfirmPasswordReset handles POST /api/auth/reset-password/confirm
// @Summary Confirm a password reset
// @Description Set a new password using a valid reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{token=string,password=string} true "Reset token and new password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/reset-password/confirm [post]
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token and password are required"))
	}

	if err := s.resetService.ConfirmReset(c.UserContext(), req.Token, req.Password); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Your password has been reset"})
}
