package service

import (
	"context"

	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/validation"
)

// PostService handles post authoring and removal.
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// Create publishes a new post for the user. The language tag is optional and
// marks the body's language for the search index.
func (s *PostService) Create(ctx context.Context, userID uint, body, language string) (*models.Post, error) {
	if err := validation.ValidatePostBody(body); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateLanguage(language); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		Body:     body,
		UserID:   userID,
		Language: language,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// Get returns a post by ID.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// Delete removes a post. Only the author may delete their own posts.
func (s *PostService) Delete(ctx context.Context, postID, requesterID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}
