package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpdateProfile 只更新资料字段，关注计数由关系写事务维护，这里不能覆盖
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Model(user).
		Select("display_name", "avatar", "bio", "is_private").
		Updates(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) Search(ctx context.Context, query string, offset, limit int) ([]*models.User, error) {
	var users []*models.User
	db := r.db.WithContext(ctx).Where("is_active = ?", true)

	if query != "" {
		db = db.Where("username ILIKE ? OR display_name ILIKE ?", "%"+query+"%", "%"+query+"%")
	}

	if err := db.Order("username").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// ListIDs 按id顺序分批遍历用户，供计数校正使用
func (r *UserRepository) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id > ?", after).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// RecountFollowCounters 按accepted关系重新计算一批用户的关注数与粉丝数，返回被修正的行数。
// 先锁定目标行，计数语句在拿到锁之后取快照
func (r *UserRepository) RecountFollowCounters(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var fixed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []uuid.UUID
		if err := tx.Model(&models.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id").
			Pluck("id", &locked).Error; err != nil {
			return err
		}
		if len(locked) == 0 {
			return nil
		}

		result := tx.Exec(`
			UPDATE users u SET
				followers = c.followers,
				following = c.following
			FROM (
				SELECT u2.id,
					(SELECT COUNT(*) FROM relationships r WHERE r.following_id = u2.id AND r.status = ?) AS followers,
					(SELECT COUNT(*) FROM relationships r WHERE r.follower_id = u2.id AND r.status = ?) AS following
				FROM users u2
				WHERE u2.id IN ?
			) c
			WHERE u.id = c.id AND (u.followers <> c.followers OR u.following <> c.following)`,
			models.StatusAccepted, models.StatusAccepted, locked)
		if result.Error != nil {
			return result.Error
		}
		fixed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recount follow counters: %w", err)
	}
	return fixed, nil
}
