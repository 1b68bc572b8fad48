package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
)

// UserDirectory 用户存在性检查与展示字段
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserStore interface {
	UserDirectory
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, offset, limit int) ([]*models.User, error)
}

// RelationshipStore 关注边存储，计数随边在同一事务中维护
type RelationshipStore interface {
	Get(ctx context.Context, followerID, followingID uuid.UUID) (*models.Relationship, error)
	Create(ctx context.Context, rel *models.Relationship) (bool, error)
	Delete(ctx context.Context, followerID, followingID uuid.UUID) (*models.Relationship, error)
	UpdateStatus(ctx context.Context, followerID, followingID uuid.UUID, from, to models.RelationshipStatus) (bool, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
	GetPendingRequests(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Post, error)
	GetByHashtag(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error)
	Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListFeedCandidates(ctx context.Context, authorIDs []uuid.UUID, since time.Time, limit, preview int) ([]*models.Post, error)
}

// LikeStore 点赞集合，Add/Remove与like_count原子更新
type LikeStore interface {
	Add(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Remove(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	IsLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Like, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Comment, error)
}

// BookmarkStore 用户收藏集合
type BookmarkStore interface {
	Add(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Remove(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	ListPosts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Post, error)
}

// ConversationStore 私信会话与消息，消息写入与会话摘要在同一事务中更新
type ConversationStore interface {
	GetOrCreate(ctx context.Context, userID, peerID uuid.UUID) (*models.Conversation, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Conversation, error)
	AddMessage(ctx context.Context, msg *models.Message, preview string) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]*models.Message, error)
}

// PostCounterStore 帖子计数校正
type PostCounterStore interface {
	ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	RecountEngagement(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// UserCounterStore 用户关注计数校正
type UserCounterStore interface {
	ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	RecountFollowCounters(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// EventPublisher 事件发布，失败只记录日志
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}
