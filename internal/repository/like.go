package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Add 插入点赞并在同一事务中递增like_count；已点赞时返回false，计数不变
func (r *LikeRepository) Add(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.Like{UserID: userID, PostID: postID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("User").Create(&like)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		added = true
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", counterExpr("like_count", 1)).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	return added, nil
}

// Remove 删除点赞并在同一事务中递减like_count，不低于0；未点赞时返回false
func (r *LikeRepository) Remove(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		removed = true
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", counterExpr("like_count", -1)).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	return removed, nil
}

func (r *LikeRepository) GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Like, error) {
	var likes []*models.Like
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to get likes by post: %w", err)
	}
	return likes, nil
}

func (r *LikeRepository) IsLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check like status: %w", err)
	}
	return count > 0, nil
}
