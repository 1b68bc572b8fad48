package handlers

import (
	"context"

	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/internal/services"
)

// 处理器只依赖用到的服务方法

type UserService interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *services.LoginRequest) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, req *services.UpdateUserRequest) (*models.User, error)
	Search(ctx context.Context, query string, offset, limit int) ([]*models.User, error)
}

type GraphService interface {
	Follow(ctx context.Context, followerID, targetID string) (*services.FollowView, error)
	Unfollow(ctx context.Context, followerID, targetID string) (*services.FollowView, error)
	AcceptRequest(ctx context.Context, ownerID, requesterID string) (*services.FollowView, error)
	RejectRequest(ctx context.Context, ownerID, requesterID string) (*services.FollowView, error)
	GetFollowers(ctx context.Context, userID string, offset, limit int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID string, offset, limit int) ([]*models.User, error)
	GetPendingRequests(ctx context.Context, userID string, offset, limit int) ([]*models.User, error)
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
}

type PostService interface {
	CreatePost(ctx context.Context, userID string, req *services.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetUserPosts(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error)
	GetPostsByHashtag(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error)
	SearchPosts(ctx context.Context, query string, offset, limit int) ([]*models.Post, error)
	DeletePost(ctx context.Context, postID, userID string) error
}

type EngagementService interface {
	Like(ctx context.Context, postID, userID string) (*models.Post, error)
	Unlike(ctx context.Context, postID, userID string) (*models.Post, error)
	AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error)
	GetPostLikes(ctx context.Context, postID string, offset, limit int) ([]*models.Like, error)
	GetPostComments(ctx context.Context, postID string, offset, limit int) ([]*models.Comment, error)
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	IsLiked(ctx context.Context, postID, userID string) (bool, error)
}

type BookmarkService interface {
	Bookmark(ctx context.Context, postID, userID string) error
	Unbookmark(ctx context.Context, postID, userID string) error
	GetBookmarkedPosts(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error)
}

type MessagingService interface {
	ListConversations(ctx context.Context, userID string, offset, limit int) ([]*models.Conversation, error)
	GetOrCreateConversation(ctx context.Context, userID, peerID string) (*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID, userID string, offset, limit int) ([]*models.Message, error)
	SendMessage(ctx context.Context, conversationID, userID string, req *services.SendMessageRequest) (*models.Message, error)
}

type FeedService interface {
	GetFeed(ctx context.Context, userID string, limit int) ([]*models.Post, error)
}

type CounterRecovery interface {
	RecountAll(ctx context.Context) (*services.RecountReport, error)
}
