package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/errs"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

const MaxCaptionLength = 2200

type PostService struct {
	users     UserDirectory
	posts     PostStore
	feedCache FeedCache
	producer  EventPublisher
	logger    *logger.Logger
}

func NewPostService(users UserDirectory, posts PostStore, feedCache FeedCache, producer EventPublisher, logger *logger.Logger) *PostService {
	return &PostService{
		users:     users,
		posts:     posts,
		feedCache: feedCache,
		producer:  producer,
		logger:    logger,
	}
}

type CreatePostRequest struct {
	Caption  string `json:"caption" binding:"required"`
	MediaURL string `json:"media_url"`
}

func (s *PostService) CreatePost(ctx context.Context, userID string, req *CreatePostRequest) (*models.Post, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	caption := strings.TrimSpace(req.Caption)
	if caption == "" {
		return nil, errs.Errorf(errs.EVALIDATION, "caption is required")
	}
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return nil, errs.Errorf(errs.EVALIDATION, "caption must be at most %d characters", MaxCaptionLength)
	}

	user, err := s.users.GetByID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "user not found")
	}

	post := &models.Post{
		UserID:   userUUID,
		Caption:  caption,
		MediaURL: strings.TrimSpace(req.MediaURL),
		Hashtags: models.ExtractHashtags(caption),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	post.User = *user

	invalidateFeeds(ctx, s.feedCache, s.logger)
	publishEvent(ctx, s.producer, s.logger, userID, queue.EventPostCreated, queue.PostEventData{
		PostID:    post.ID.String(),
		UserID:    userID,
		Hashtags:  post.Hashtags,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id":  post.ID,
		"user_id":  userID,
		"hashtags": len(post.Hashtags),
	}).Info("Post created successfully")

	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "post not found")
	}
	return post, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.GetByUserID(ctx, id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get user posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) GetPostsByHashtag(ctx context.Context, tag string, offset, limit int) ([]*models.Post, error) {
	tag = models.NormalizeHashtag(tag)
	if tag == "" {
		return nil, errs.Errorf(errs.EVALIDATION, "hashtag is required")
	}

	posts, err := s.posts.GetByHashtag(ctx, tag, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts by hashtag: %w", err)
	}
	return posts, nil
}

func (s *PostService) SearchPosts(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	posts, err := s.posts.Search(ctx, strings.TrimSpace(query), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

// DeletePost 只有作者可以删除
func (s *PostService) DeletePost(ctx context.Context, postID, userID string) error {
	postUUID, err := parseID(postID, "post")
	if err != nil {
		return err
	}
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return err
	}

	post, err := s.posts.GetByID(ctx, postUUID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return errs.Errorf(errs.ENOTFOUND, "post not found")
	}
	if post.UserID != userUUID {
		return errs.Errorf(errs.EFORBIDDEN, "only the author can delete this post")
	}

	if err := s.posts.Delete(ctx, postUUID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	invalidateFeeds(ctx, s.feedCache, s.logger)
	publishEvent(ctx, s.producer, s.logger, userID, queue.EventPostDeleted, queue.PostEventData{
		PostID: postID,
		UserID: userID,
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": postID,
		"user_id": userID,
	}).Info("Post deleted successfully")

	return nil
}
