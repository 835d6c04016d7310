package repository

import (
	"context"
	"errors"

	"microblog/internal/models"
	"microblog/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts, including the
// timeline composition query.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	ByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, int64, error)
	AllByUserAscending(ctx context.Context, userID uint) ([]models.Post, error)
	All(ctx context.Context, limit, offset int) ([]models.Post, int64, error)
	FollowingFeed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, int64, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// feedOrder is the canonical timeline ordering: newest first, ties broken by
// descending ID so pagination stays deterministic.
const feedOrder = "timestamp DESC, id DESC"

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	if err := q.Preload("User").Order(feedOrder).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// AllByUserAscending returns every post by the user in publication order.
// Used by the export worker, which streams oldest first.
func (r *postRepository) AllByUserAscending(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp ASC, id ASC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) All(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	if err := r.db.WithContext(ctx).Preload("User").
		Order(feedOrder).Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// FollowingFeed composes the timeline for userID: posts authored by the user
// or by anyone they follow, recomputed from the current edge set on every
// call so follow/unfollow take effect immediately.
func (r *postRepository) FollowingFeed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, int64, error) {
	defer observability.TrackQuery("select", "posts")()
	observability.TimelineQueries.Inc()

	followed := r.db.WithContext(ctx).Model(&models.Follow{}).
		Select("followed_id").
		Where("follower_id = ?", userID)

	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ? OR user_id IN (?)", userID, followed)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	if err := q.Preload("User").Order(feedOrder).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Search matches post bodies case-insensitively. ILIKE under Postgres; the
// sqlite LIKE used in tests is case-insensitive for ASCII already.
func (r *postRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.Post, int64, error) {
	op := "LIKE"
	if r.db.Dialector.Name() == "postgres" {
		op = "ILIKE"
	}
	pattern := "%" + query + "%"

	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("body "+op+" ?", pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	if err := q.Preload("User").Order(feedOrder).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}
