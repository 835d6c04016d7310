package service

import (
	"context"
	"strings"

	"microblog/internal/models"
	"microblog/internal/repository"
)

// SearchService runs full-text queries over post bodies.
type SearchService struct {
	postRepo repository.PostRepository
}

// NewSearchService returns a new SearchService.
func NewSearchService(postRepo repository.PostRepository) *SearchService {
	return &SearchService{postRepo: postRepo}
}

// Posts searches post bodies for the query, newest first. Blank queries are
// rejected rather than matching everything.
func (s *SearchService) Posts(ctx context.Context, query string, page, perPage int) ([]models.Post, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, models.NewValidationError("Search query cannot be empty")
	}

	limit, offset := pageBounds(page, perPage)
	return s.postRepo.Search(ctx, query, limit, offset)
}
