// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/per_page query parameters.
type Pagination struct {
	Page    int
	PerPage int
}

const maxPerPage = 100

// parsePagination extracts page and per_page query parameters. Page numbers
// are 1-based; out-of-range values snap back to sane bounds.
func (s *Server) parsePagination(c *fiber.Ctx) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	perPage := c.QueryInt("per_page", s.config.PostsPerPage)
	if perPage <= 0 {
		perPage = s.config.PostsPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{Page: page, PerPage: perPage}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID returns the authenticated user ID set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	return c.Locals("userID").(uint)
}

// statusForError maps an AppError code to an HTTP status.
func statusForError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.ErrCodeNotFound:
			return fiber.StatusNotFound
		case models.ErrCodeValidation:
			return fiber.StatusBadRequest
		case models.ErrCodeConflict:
			return fiber.StatusConflict
		case models.ErrCodeUnauthorized:
			return fiber.StatusUnauthorized
		}
	}
	return fiber.StatusInternalServerError
}

// fail writes the JSON error response for a service-layer error.
func fail(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForError(err), err)
}

// itoa formats a uint for use in URLs and responses.
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// basicAuthCredentials decodes an "Authorization: Basic ..." header.
func basicAuthCredentials(c *fiber.Ctx) (username, password string, ok bool) {
	header := c.Get("Authorization")
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(decoded), ":")
	return username, password, ok
}

// pagedResponse is the envelope for list endpoints.
func pagedResponse(items any, total int64, p Pagination) fiber.Map {
	return fiber.Map{
		"items":    items,
		"total":    total,
		"page":     p.Page,
		"per_page": p.PerPage,
	}
}
