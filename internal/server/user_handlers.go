// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"microblog/internal/models"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// userProfile is the public representation of a user, enriched with follow
// graph counts and a Gravatar URL.
type userProfile struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	LastSeen       string `json:"last_seen"`
	AvatarURL      string `json:"avatar_url"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	PostCount      int64  `json:"post_count"`
}

func (s *Server) buildProfile(c *fiber.Ctx, user *models.User) (*userProfile, error) {
	followers, err := s.identityService.FollowersCount(c.UserContext(), user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.identityService.FollowingCount(c.UserContext(), user.ID)
	if err != nil {
		return nil, err
	}
	_, posts, err := s.timelineService.UserPosts(c.UserContext(), user.ID, 1, 1)
	if err != nil {
		return nil, err
	}

	return &userProfile{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            user.Bio,
		LastSeen:       user.LastSeen.UTC().Format("2006-01-02T15:04:05Z07:00"),
		AvatarURL:      user.AvatarURL(128),
		FollowerCount:  followers,
		FollowingCount: following,
		PostCount:      posts,
	}, nil
}

// GetUser handles GET /api/users/:id
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.identityService.GetUser(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}

	profile, err := s.buildProfile(c, user)
	if err != nil {
		return fail(c, err)
	}

	following, err := s.identityService.IsFollowing(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"user":      profile,
		"following": following,
	})
}

// GetMe handles GET /api/me
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Success 200 {object} object{}
// @Security BearerAuth
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.identityService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}

	profile, err := s.buildProfile(c, user)
	if err != nil {
		return fail(c, err)
	}

	unread, err := s.messageService.UnreadCount(c.UserContext(), user.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"user":                 profile,
		"email":                user.Email,
		"unread_message_count": unread,
	})
}

// UpdateMe handles PUT /api/me
// @Summary Update the authenticated user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,bio=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [put]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		Username string  `json:"username"`
		Bio      *string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.identityService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// ListUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{}
// @Security BearerAuth
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	p := s.parsePagination(c)
	users, total, err := s.identityService.ListUsers(c.UserContext(), p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(users, total, p))
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary List a user's followers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.identityService.GetUser(c.UserContext(), id); err != nil {
		return fail(c, err)
	}

	p := s.parsePagination(c)
	users, total, err := s.identityService.Followers(c.UserContext(), id, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(users, total, p))
}

// GetFollowing handles GET /api/users/:id/following
// @Summary List the users a user follows
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.identityService.GetUser(c.UserContext(), id); err != nil {
		return fail(c, err)
	}

	p := s.parsePagination(c)
	users, total, err := s.identityService.Following(c.UserContext(), id, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(users, total, p))
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary List a user's posts
// @Tags posts
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.identityService.GetUser(c.UserContext(), id); err != nil {
		return fail(c, err)
	}

	p := s.parsePagination(c)
	posts, total, err := s.timelineService.UserPosts(c.UserContext(), id, p.Page, p.PerPage)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pagedResponse(posts, total, p))
}
