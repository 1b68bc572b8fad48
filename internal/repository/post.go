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

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create 在同一事务中写入帖子和话题标签
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Tags", "Likes", "Comments").Create(post).Error; err != nil {
			return err
		}
		if len(post.Hashtags) == 0 {
			return nil
		}

		tags := make([]models.PostTag, 0, len(post.Hashtags))
		for _, tag := range post.Hashtags {
			tags = append(tags, models.PostTag{PostID: post.ID, Tag: tag})
		}
		if err := tx.Create(&tags).Error; err != nil {
			return err
		}
		post.Tags = tags
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		First(&post, "id = ? AND is_deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) GetByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by user: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) GetByHashtag(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag = ? AND posts.is_deleted = ?", tag, false).
		Order("posts.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by hashtag: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	db := r.db.WithContext(ctx).Preload("User").Preload("Tags").Where("is_deleted = ?", false)

	if query != "" {
		db = db.Where("caption ILIKE ?", "%"+query+"%")
	}

	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

// Delete 软删除，点赞和评论由worker在post_deleted事件中清理
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// ListFeedCandidates 作者在authorIDs中或发布时间不早于since的帖子，按(like_count, created_at)降序；
// 每条帖子附带最近preview条点赞和评论
func (r *PostRepository) ListFeedCandidates(ctx context.Context, authorIDs []uuid.UUID, since time.Time, limit, preview int) ([]*models.Post, error) {
	var posts []*models.Post
	db := r.db.WithContext(ctx)
	if err := feedCandidates(db.Preload("User").Preload("Tags"), authorIDs, since, limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list feed candidates: %w", err)
	}
	if err := attachPreviews(db, posts, preview); err != nil {
		return nil, fmt.Errorf("failed to load engagement previews: %w", err)
	}
	return posts, nil
}

// feedCandidates 作者条件与时间窗口先用OR组合，再与is_deleted取AND
func feedCandidates(db *gorm.DB, authorIDs []uuid.UUID, since time.Time, limit int) *gorm.DB {
	window := db.Session(&gorm.Session{NewDB: true}).
		Where("user_id IN ?", authorIDs).
		Or("created_at >= ?", since)
	return db.Model(&models.Post{}).
		Where("is_deleted = ?", false).
		Where(window).
		Order("like_count DESC, created_at DESC").
		Limit(limit)
}

// rankedByPost 按帖子分区编号，rn从1开始
func rankedByPost(db *gorm.DB, model interface{}, postIDs []uuid.UUID) *gorm.DB {
	return db.Model(model).
		Select("*, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at DESC) AS rn").
		Where("post_id IN ?", postIDs)
}

func attachPreviews(db *gorm.DB, posts []*models.Post, preview int) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(posts))
	byID := make(map[uuid.UUID]*models.Post, len(posts))
	for _, p := range posts {
		p.Likes = []models.Like{}
		p.Comments = []models.Comment{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}
	if preview <= 0 {
		return nil
	}

	var likes []models.Like
	if err := db.Table("(?) AS ranked", rankedByPost(db.Session(&gorm.Session{NewDB: true}), &models.Like{}, ids)).
		Preload("User").
		Where("rn <= ?", preview).
		Order("created_at DESC").
		Find(&likes).Error; err != nil {
		return err
	}
	for _, l := range likes {
		if p, ok := byID[l.PostID]; ok {
			p.Likes = append(p.Likes, l)
		}
	}

	var comments []models.Comment
	if err := db.Table("(?) AS ranked", rankedByPost(db.Session(&gorm.Session{NewDB: true}), &models.Comment{}, ids)).
		Preload("User").
		Where("rn <= ?", preview).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return err
	}
	for _, c := range comments {
		if p, ok := byID[c.PostID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return nil
}

// PurgeEngagement 清理已软删除帖子的点赞、评论、收藏和标签
func (r *PostRepository) PurgeEngagement(ctx context.Context, postID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).
			Where("id = ? AND is_deleted = ?", postID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to purge post engagement: %w", err)
	}
	return nil
}

func (r *PostRepository) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id > ? AND is_deleted = ?", after, false).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list post ids: %w", err)
	}
	return ids, nil
}

// RecountEngagement 按likes/comments表重新计算一批帖子的计数，返回被修正的行数。
// 先锁定目标行，计数语句在拿到锁之后取快照
func (r *PostRepository) RecountEngagement(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var fixed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []uuid.UUID
		if err := tx.Model(&models.Post{}).
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
			UPDATE posts p SET
				like_count = c.likes,
				comment_count = c.comments
			FROM (
				SELECT p2.id,
					(SELECT COUNT(*) FROM likes l WHERE l.post_id = p2.id) AS likes,
					(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p2.id) AS comments
				FROM posts p2
				WHERE p2.id IN ?
			) c
			WHERE p.id = c.id AND (p.like_count <> c.likes OR p.comment_count <> c.comments)`, locked)
		if result.Error != nil {
			return result.Error
		}
		fixed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recount post engagement: %w", err)
	}
	return fixed, nil
}
