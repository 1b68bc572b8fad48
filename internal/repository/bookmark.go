package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Add 已收藏时返回false
func (r *BookmarkRepository) Add(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	bookmark := models.Bookmark{UserID: userID, PostID: postID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&bookmark)
	if result.Error != nil {
		return false, fmt.Errorf("failed to add bookmark: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Remove 未收藏时返回false
func (r *BookmarkRepository) Remove(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove bookmark: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListPosts 用户收藏的未删除帖子，最近收藏的在前
func (r *BookmarkRepository) ListPosts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ? AND posts.is_deleted = ?", userID, false).
		Order("bookmarks.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookmarked posts: %w", err)
	}
	return posts, nil
}
