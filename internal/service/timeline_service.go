package service

import (
	"context"

	"microblog/internal/models"
	"microblog/internal/repository"
)

// TimelineService composes chronological feeds out of the post store and the
// current follow graph. It is stateless: every call reflects the edge set as
// it exists right now.
type TimelineService struct {
	postRepo repository.PostRepository
}

// NewTimelineService returns a new TimelineService.
func NewTimelineService(postRepo repository.PostRepository) *TimelineService {
	return &TimelineService{postRepo: postRepo}
}

// FollowingPosts returns one page of the user's feed (own posts plus posts by
// everyone they follow, newest first) and the total feed size.
func (s *TimelineService) FollowingPosts(ctx context.Context, userID uint, page, perPage int) ([]models.Post, int64, error) {
	limit, offset := pageBounds(page, perPage)
	return s.postRepo.FollowingFeed(ctx, userID, limit, offset)
}

// UserPosts returns one page of posts authored by the user, newest first.
func (s *TimelineService) UserPosts(ctx context.Context, userID uint, page, perPage int) ([]models.Post, int64, error) {
	limit, offset := pageBounds(page, perPage)
	return s.postRepo.ByUser(ctx, userID, limit, offset)
}

// Explore returns one page over all posts, newest first.
func (s *TimelineService) Explore(ctx context.Context, page, perPage int) ([]models.Post, int64, error) {
	limit, offset := pageBounds(page, perPage)
	return s.postRepo.All(ctx, limit, offset)
}

// maxPerPage caps page sizes regardless of what the caller asks for.
const maxPerPage = 100

// pageBounds translates 1-based page numbers into limit/offset.
func pageBounds(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return perPage, (page - 1) * perPage
}
