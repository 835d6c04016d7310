// Package service implements business logic on top of the repository layer.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	// tokenTTL is the lifetime of a freshly issued API token.
	tokenTTL = time.Hour
	// tokenReuseMargin: an existing token is reused only if it stays valid
	// at least this long, so callers never receive an about-to-expire token.
	tokenReuseMargin = time.Minute
)

// IdentityService owns user accounts, credentials, API tokens, and the
// follow graph.
type IdentityService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	now        func() time.Time
}

// NewIdentityService returns a new IdentityService.
func NewIdentityService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *IdentityService {
	return &IdentityService{
		userRepo:   userRepo,
		followRepo: followRepo,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *IdentityService) WithClock(now func() time.Time) *IdentityService {
	s.now = now
	return s
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new account. Duplicate username or email is reported as
// a conflict, not an internal failure.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	// Pre-checks give friendly messages; the unique indexes remain the
	// authority under concurrent registration.
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Please use a different username")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Please use a different email address")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		LastSeen:     s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the password for the named user. Unknown users and
// wrong passwords are both reported as plain absence.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}

// IssueToken returns the user's API token, reusing a stored token that is
// still comfortably unexpired and minting a fresh one otherwise.
func (s *IdentityService) IssueToken(ctx context.Context, userID uint) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	if user.Token != "" && user.TokenExpiration.After(now.Add(tokenReuseMargin)) {
		return user.Token, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	user.Token = token
	user.TokenExpiration = now.Add(tokenTTL)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

// RevokeToken expires the user's current token immediately. Revoking a user
// with no token is a no-op.
func (s *IdentityService) RevokeToken(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Token == "" {
		return nil
	}
	user.TokenExpiration = s.now().UTC().Add(-time.Second)
	return s.userRepo.Update(ctx, user)
}

// ResolveToken returns the owner of an unexpired token, or nil. Expired
// tokens resolve to nil but stay in place.
func (s *IdentityService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	user, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.TokenValid(s.now().UTC()) {
		return nil, nil
	}
	return user, nil
}

// TouchLastSeen records request activity for the user.
func (s *IdentityService) TouchLastSeen(ctx context.Context, userID uint) error {
	return s.userRepo.TouchLastSeen(ctx, userID, s.now().UTC())
}

// Follow inserts the edge follower -> followed. Self-follows and existing
// edges are silent no-ops.
func (s *IdentityService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}
	exists, err := s.followRepo.Exists(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.followRepo.Create(ctx, followerID, followedID)
}

// Unfollow removes the edge follower -> followed. A missing edge is a silent
// no-op.
func (s *IdentityService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}
	return s.followRepo.Delete(ctx, followerID, followedID)
}

// IsFollowing reports whether the edge a -> b exists.
func (s *IdentityService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.followRepo.Exists(ctx, a, b)
}

// FollowersCount returns the number of users following userID.
func (s *IdentityService) FollowersCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.FollowersCount(ctx, userID)
}

// FollowingCount returns the number of users userID follows.
func (s *IdentityService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.FollowingCount(ctx, userID)
}

// Followers returns a page of the user's followers with the total count.
func (s *IdentityService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return s.followRepo.Followers(ctx, userID, limit, offset)
}

// Following returns a page of users the user follows with the total count.
func (s *IdentityService) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return s.followRepo.Following(ctx, userID, limit, offset)
}

// UpdateProfileInput carries profile fields to change. Empty fields are left
// untouched.
type UpdateProfileInput struct {
	UserID   uint
	Username string
	Bio      *string
}

// UpdateProfile applies a partial profile edit.
func (s *IdentityService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, models.NewConflictError("Please use a different username")
		}
		user.Username = in.Username
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = *in.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword replaces the user's password hash.
func (s *IdentityService) SetPassword(ctx context.Context, userID uint, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, user)
}

// GetUser returns a user by ID.
func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetUserByEmail returns a user by email, or nil.
func (s *IdentityService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

// ListUsers returns a page of users ordered by ID.
func (s *IdentityService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// generateToken mints an opaque 128-bit token, hex encoded.
func generateToken() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}
