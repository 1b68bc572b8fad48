package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

func (r *RelationshipRepository) Get(ctx context.Context, followerID, followingID uuid.UUID) (*models.Relationship, error) {
	var rel models.Relationship
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return &rel, nil
}

// Create 写入关注边，已存在pending/accepted边时返回false。
// rejected边视为已删除，重新申请时原地重置。状态为accepted时同一事务内更新双方计数。
func (r *RelationshipRepository) Create(ctx context.Context, rel *models.Relationship) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Relationship
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("follower_id = ? AND following_id = ?", rel.FollowerID, rel.FollowingID).
			First(&existing).Error

		switch {
		case err == nil:
			if existing.Status != models.StatusRejected {
				return nil
			}
			now := time.Now()
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"status":     rel.Status,
				"created_at": now,
			}).Error; err != nil {
				return err
			}
			rel.ID = existing.ID
			rel.CreatedAt = now
			rel.UpdatedAt = existing.UpdatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rel)
			if result.Error != nil {
				return result.Error
			}
			// 并发请求已经插入
			if result.RowsAffected == 0 {
				return nil
			}
		default:
			return err
		}

		created = true
		if rel.Status == models.StatusAccepted {
			return adjustFollowCounters(tx, rel.FollowerID, rel.FollowingID, 1)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to create relationship: %w", err)
	}
	return created, nil
}

// Delete 硬删除关注边，返回被删除的边；不存在时返回nil
func (r *RelationshipRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) (*models.Relationship, error) {
	var removed *models.Relationship
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Relationship
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Delete(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		removed = &existing
		if existing.Status == models.StatusAccepted {
			return adjustFollowCounters(tx, followerID, followingID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete relationship: %w", err)
	}
	return removed, nil
}

// UpdateStatus 条件状态迁移，只有当前状态为from时才生效
func (r *RelationshipRepository) UpdateStatus(ctx context.Context, followerID, followingID uuid.UUID, from, to models.RelationshipStatus) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Relationship{}).
			Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		changed = true
		switch {
		case to == models.StatusAccepted && from != models.StatusAccepted:
			return adjustFollowCounters(tx, followerID, followingID, 1)
		case from == models.StatusAccepted && to != models.StatusAccepted:
			return adjustFollowCounters(tx, followerID, followingID, -1)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update relationship status: %w", err)
	}
	return changed, nil
}

func (r *RelationshipRepository) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("follower_id = ? AND status = ?", userID, models.StatusAccepted).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get following ids: %w", err)
	}
	return ids, nil
}

func (r *RelationshipRepository) GetFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	users, err := r.listUsers(ctx, "relationships.follower_id", "relationships.following_id", userID, models.StatusAccepted, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

func (r *RelationshipRepository) GetFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	users, err := r.listUsers(ctx, "relationships.following_id", "relationships.follower_id", userID, models.StatusAccepted, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}

// GetPendingRequests 等待userID审批的关注申请者
func (r *RelationshipRepository) GetPendingRequests(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error) {
	users, err := r.listUsers(ctx, "relationships.follower_id", "relationships.following_id", userID, models.StatusPending, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending requests: %w", err)
	}
	return users, nil
}

func (r *RelationshipRepository) listUsers(ctx context.Context, joinCol, filterCol string, userID uuid.UUID, status models.RelationshipStatus, offset, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN relationships ON "+joinCol+" = users.id").
		Where(filterCol+" = ? AND relationships.status = ?", userID, status).
		Order("relationships.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *RelationshipRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("following_id = ? AND status = ?", userID, models.StatusAccepted).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}

func (r *RelationshipRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("follower_id = ? AND status = ?", userID, models.StatusAccepted).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return count, nil
}

// adjustFollowCounters 在关系写事务内同步更新双方计数，递减不低于0
func adjustFollowCounters(tx *gorm.DB, followerID, followingID uuid.UUID, delta int) error {
	if err := tx.Model(&models.User{}).Where("id = ?", followerID).
		UpdateColumn("following", counterExpr("following", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", followingID).
		UpdateColumn("followers", counterExpr("followers", delta)).Error
}

func counterExpr(column string, delta int) clause.Expr {
	if delta >= 0 {
		return gorm.Expr(column+" + ?", delta)
	}
	return gorm.Expr("GREATEST("+column+" - ?, 0)", -delta)
}
