package handlers

import (
	"context"

	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/internal/services"
)

// 只实现测试关心的方法，未设置的函数返回零值

type mockUserService struct {
	RegisterFunc func(ctx context.Context, req *services.RegisterRequest) (*models.User, error)
	LoginFunc    func(ctx context.Context, req *services.LoginRequest) (*models.User, error)
	GetByIDFunc  func(ctx context.Context, userID string) (*models.User, error)
	UpdateFunc   func(ctx context.Context, userID string, req *services.UpdateUserRequest) (*models.User, error)
	SearchFunc   func(ctx context.Context, query string, offset, limit int) ([]*models.User, error)
}

func (m *mockUserService) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	if m.RegisterFunc == nil {
		return &models.User{}, nil
	}
	return m.RegisterFunc(ctx, req)
}

func (m *mockUserService) Login(ctx context.Context, req *services.LoginRequest) (*models.User, error) {
	if m.LoginFunc == nil {
		return &models.User{}, nil
	}
	return m.LoginFunc(ctx, req)
}

func (m *mockUserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if m.GetByIDFunc == nil {
		return &models.User{}, nil
	}
	return m.GetByIDFunc(ctx, userID)
}

func (m *mockUserService) Update(ctx context.Context, userID string, req *services.UpdateUserRequest) (*models.User, error) {
	if m.UpdateFunc == nil {
		return &models.User{}, nil
	}
	return m.UpdateFunc(ctx, userID, req)
}

func (m *mockUserService) Search(ctx context.Context, query string, offset, limit int) ([]*models.User, error) {
	if m.SearchFunc == nil {
		return []*models.User{}, nil
	}
	return m.SearchFunc(ctx, query, offset, limit)
}

type mockGraphService struct {
	FollowFunc             func(ctx context.Context, followerID, targetID string) (*services.FollowView, error)
	UnfollowFunc           func(ctx context.Context, followerID, targetID string) (*services.FollowView, error)
	AcceptRequestFunc      func(ctx context.Context, ownerID, requesterID string) (*services.FollowView, error)
	RejectRequestFunc      func(ctx context.Context, ownerID, requesterID string) (*services.FollowView, error)
	GetFollowersFunc       func(ctx context.Context, userID string, offset, limit int) ([]*models.User, error)
	GetFollowingFunc       func(ctx context.Context, userID string, offset, limit int) ([]*models.User, error)
	GetPendingRequestsFunc func(ctx context.Context, userID string, offset, limit int) ([]*models.User, error)
	IsFollowingFunc        func(ctx context.Context, followerID, targetID string) (bool, error)
}

func (m *mockGraphService) Follow(ctx context.Context, followerID, targetID string) (*services.FollowView, error) {
	if m.FollowFunc == nil {
		return &services.FollowView{}, nil
	}
	return m.FollowFunc(ctx, followerID, targetID)
}

func (m *mockGraphService) Unfollow(ctx context.Context, followerID, targetID string) (*services.FollowView, error) {
	if m.UnfollowFunc == nil {
		return &services.FollowView{}, nil
	}
	return m.UnfollowFunc(ctx, followerID, targetID)
}

func (m *mockGraphService) AcceptRequest(ctx context.Context, ownerID, requesterID string) (*services.FollowView, error) {
	if m.AcceptRequestFunc == nil {
		return &services.FollowView{}, nil
	}
	return m.AcceptRequestFunc(ctx, ownerID, requesterID)
}

func (m *mockGraphService) RejectRequest(ctx context.Context, ownerID, requesterID string) (*services.FollowView, error) {
	if m.RejectRequestFunc == nil {
		return &services.FollowView{}, nil
	}
	return m.RejectRequestFunc(ctx, ownerID, requesterID)
}

func (m *mockGraphService) GetFollowers(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	if m.GetFollowersFunc == nil {
		return []*models.User{}, nil
	}
	return m.GetFollowersFunc(ctx, userID, offset, limit)
}

func (m *mockGraphService) GetFollowing(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	if m.GetFollowingFunc == nil {
		return []*models.User{}, nil
	}
	return m.GetFollowingFunc(ctx, userID, offset, limit)
}

func (m *mockGraphService) GetPendingRequests(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	if m.GetPendingRequestsFunc == nil {
		return []*models.User{}, nil
	}
	return m.GetPendingRequestsFunc(ctx, userID, offset, limit)
}

func (m *mockGraphService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	if m.IsFollowingFunc == nil {
		return false, nil
	}
	return m.IsFollowingFunc(ctx, followerID, targetID)
}

type mockPostService struct {
	CreatePostFunc        func(ctx context.Context, userID string, req *services.CreatePostRequest) (*models.Post, error)
	GetPostFunc           func(ctx context.Context, postID string) (*models.Post, error)
	GetUserPostsFunc      func(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error)
	GetPostsByHashtagFunc func(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error)
	SearchPostsFunc       func(ctx context.Context, query string, offset, limit int) ([]*models.Post, error)
	DeletePostFunc        func(ctx context.Context, postID, userID string) error
}

func (m *mockPostService) CreatePost(ctx context.Context, userID string, req *services.CreatePostRequest) (*models.Post, error) {
	if m.CreatePostFunc == nil {
		return &models.Post{}, nil
	}
	return m.CreatePostFunc(ctx, userID, req)
}

func (m *mockPostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if m.GetPostFunc == nil {
		return &models.Post{}, nil
	}
	return m.GetPostFunc(ctx, postID)
}

func (m *mockPostService) GetUserPosts(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error) {
	if m.GetUserPostsFunc == nil {
		return []*models.Post{}, nil
	}
	return m.GetUserPostsFunc(ctx, userID, offset, limit)
}

func (m *mockPostService) GetPostsByHashtag(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error) {
	if m.GetPostsByHashtagFunc == nil {
		return []*models.Post{}, nil
	}
	return m.GetPostsByHashtagFunc(ctx, tag, offset, limit)
}

func (m *mockPostService) SearchPosts(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	if m.SearchPostsFunc == nil {
		return []*models.Post{}, nil
	}
	return m.SearchPostsFunc(ctx, query, offset, limit)
}

func (m *mockPostService) DeletePost(ctx context.Context, postID, userID string) error {
	if m.DeletePostFunc == nil {
		return nil
	}
	return m.DeletePostFunc(ctx, postID, userID)
}

type mockEngagementService struct {
	LikeFunc            func(ctx context.Context, postID, userID string) (*models.Post, error)
	UnlikeFunc          func(ctx context.Context, postID, userID string) (*models.Post, error)
	AddCommentFunc      func(ctx context.Context, postID, userID, content string) (*models.Comment, error)
	GetPostLikesFunc    func(ctx context.Context, postID string, offset, limit int) ([]*models.Like, error)
	GetPostCommentsFunc func(ctx context.Context, postID string, offset, limit int) ([]*models.Comment, error)
	GetCommentFunc      func(ctx context.Context, commentID string) (*models.Comment, error)
	IsLikedFunc         func(ctx context.Context, postID, userID string) (bool, error)
}

func (m *mockEngagementService) Like(ctx context.Context, postID, userID string) (*models.Post, error) {
	if m.LikeFunc == nil {
		return &models.Post{}, nil
	}
	return m.LikeFunc(ctx, postID, userID)
}

func (m *mockEngagementService) Unlike(ctx context.Context, postID, userID string) (*models.Post, error) {
	if m.UnlikeFunc == nil {
		return &models.Post{}, nil
	}
	return m.UnlikeFunc(ctx, postID, userID)
}

func (m *mockEngagementService) AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error) {
	if m.AddCommentFunc == nil {
		return &models.Comment{}, nil
	}
	return m.AddCommentFunc(ctx, postID, userID, content)
}

func (m *mockEngagementService) GetPostLikes(ctx context.Context, postID string, offset, limit int) ([]*models.Like, error) {
	if m.GetPostLikesFunc == nil {
		return []*models.Like{}, nil
	}
	return m.GetPostLikesFunc(ctx, postID, offset, limit)
}

func (m *mockEngagementService) GetPostComments(ctx context.Context, postID string, offset, limit int) ([]*models.Comment, error) {
	if m.GetPostCommentsFunc == nil {
		return []*models.Comment{}, nil
	}
	return m.GetPostCommentsFunc(ctx, postID, offset, limit)
}

func (m *mockEngagementService) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	if m.GetCommentFunc == nil {
		return &models.Comment{}, nil
	}
	return m.GetCommentFunc(ctx, commentID)
}

func (m *mockEngagementService) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	if m.IsLikedFunc == nil {
		return false, nil
	}
	return m.IsLikedFunc(ctx, postID, userID)
}

type mockFeedService struct {
	GetFeedFunc func(ctx context.Context, userID string, limit int) ([]*models.Post, error)
}

func (m *mockFeedService) GetFeed(ctx context.Context, userID string, limit int) ([]*models.Post, error) {
	if m.GetFeedFunc == nil {
		return []*models.Post{}, nil
	}
	return m.GetFeedFunc(ctx, userID, limit)
}

type mockCounterRecovery struct {
	RecountAllFunc func(ctx context.Context) (*services.RecountReport, error)
}

func (m *mockCounterRecovery) RecountAll(ctx context.Context) (*services.RecountReport, error) {
	if m.RecountAllFunc == nil {
		return &services.RecountReport{}, nil
	}
	return m.RecountAllFunc(ctx)
}

type mockBookmarkService struct {
	BookmarkFunc           func(ctx context.Context, postID, userID string) error
	UnbookmarkFunc         func(ctx context.Context, postID, userID string) error
	GetBookmarkedPostsFunc func(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error)
}

func (m *mockBookmarkService) Bookmark(ctx context.Context, postID, userID string) error {
	if m.BookmarkFunc == nil {
		return nil
	}
	return m.BookmarkFunc(ctx, postID, userID)
}

func (m *mockBookmarkService) Unbookmark(ctx context.Context, postID, userID string) error {
	if m.UnbookmarkFunc == nil {
		return nil
	}
	return m.UnbookmarkFunc(ctx, postID, userID)
}

func (m *mockBookmarkService) GetBookmarkedPosts(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error) {
	if m.GetBookmarkedPostsFunc == nil {
		return []*models.Post{}, nil
	}
	return m.GetBookmarkedPostsFunc(ctx, userID, offset, limit)
}

type mockMessagingService struct {
	ListConversationsFunc       func(ctx context.Context, userID string, offset, limit int) ([]*models.Conversation, error)
	GetOrCreateConversationFunc func(ctx context.Context, userID, peerID string) (*models.Conversation, error)
	ListMessagesFunc            func(ctx context.Context, conversationID, userID string, offset, limit int) ([]*models.Message, error)
	SendMessageFunc             func(ctx context.Context, conversationID, userID string, req *services.SendMessageRequest) (*models.Message, error)
}

func (m *mockMessagingService) ListConversations(ctx context.Context, userID string, offset, limit int) ([]*models.Conversation, error) {
	if m.ListConversationsFunc == nil {
		return []*models.Conversation{}, nil
	}
	return m.ListConversationsFunc(ctx, userID, offset, limit)
}

func (m *mockMessagingService) GetOrCreateConversation(ctx context.Context, userID, peerID string) (*models.Conversation, error) {
	if m.GetOrCreateConversationFunc == nil {
		return &models.Conversation{}, nil
	}
	return m.GetOrCreateConversationFunc(ctx, userID, peerID)
}

func (m *mockMessagingService) ListMessages(ctx context.Context, conversationID, userID string, offset, limit int) ([]*models.Message, error) {
	if m.ListMessagesFunc == nil {
		return []*models.Message{}, nil
	}
	return m.ListMessagesFunc(ctx, conversationID, userID, offset, limit)
}

func (m *mockMessagingService) SendMessage(ctx context.Context, conversationID, userID string, req *services.SendMessageRequest) (*models.Message, error) {
	if m.SendMessageFunc == nil {
		return &models.Message{}, nil
	}
	return m.SendMessageFunc(ctx, conversationID, userID, req)
}
