package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/errs"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

const MaxCommentLength = 500

type EngagementService struct {
	users     UserDirectory
	posts     PostStore
	likes     LikeStore
	comments  CommentStore
	feedCache FeedCache
	producer  EventPublisher
	logger    *logger.Logger
}

func NewEngagementService(
	users UserDirectory,
	posts PostStore,
	likes LikeStore,
	comments CommentStore,
	feedCache FeedCache,
	producer EventPublisher,
	logger *logger.Logger,
) *EngagementService {
	return &EngagementService{
		users:     users,
		posts:     posts,
		likes:     likes,
		comments:  comments,
		feedCache: feedCache,
		producer:  producer,
		logger:    logger,
	}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Like 点赞，是否已点赞以点赞集合为准
func (s *EngagementService) Like(ctx context.Context, postID, userID string) (post *models.Post, err error) {
	defer func() { engagementOpsTotal.WithLabelValues("like", resultLabel(err)).Inc() }()

	postUUID, userUUID, err := s.resolve(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	added, err := s.likes.Add(ctx, postUUID, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to add like: %w", err)
	}
	if !added {
		return nil, errs.Errorf(errs.EALREADYLIKED, "post already liked")
	}

	post, err = s.reload(ctx, postUUID)
	if err != nil {
		return nil, err
	}

	invalidateFeeds(ctx, s.feedCache, s.logger)
	publishEvent(ctx, s.producer, s.logger, userID, queue.EventLikeCreated, queue.LikeEventData{
		UserID:    userID,
		PostID:    postID,
		LikeCount: post.LikeCount,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
	}).Info("Post liked successfully")

	return post, nil
}

func (s *EngagementService) Unlike(ctx context.Context, postID, userID string) (post *models.Post, err error) {
	defer func() { engagementOpsTotal.WithLabelValues("unlike", resultLabel(err)).Inc() }()

	postUUID, userUUID, err := s.resolve(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.likes.Remove(ctx, postUUID, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}
	if !removed {
		return nil, errs.Errorf(errs.ENOTLIKED, "post not liked")
	}

	post, err = s.reload(ctx, postUUID)
	if err != nil {
		return nil, err
	}

	invalidateFeeds(ctx, s.feedCache, s.logger)
	publishEvent(ctx, s.producer, s.logger, userID, queue.EventLikeDeleted, queue.LikeEventData{
		UserID:    userID,
		PostID:    postID,
		LikeCount: post.LikeCount,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
	}).Info("Post unliked successfully")

	return post, nil
}

func (s *EngagementService) AddComment(ctx context.Context, postID, userID, content string) (comment *models.Comment, err error) {
	defer func() { engagementOpsTotal.WithLabelValues("comment", resultLabel(err)).Inc() }()

	postUUID, userUUID, err := s.resolve(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.Errorf(errs.EVALIDATION, "comment content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, errs.Errorf(errs.EVALIDATION, "comment must be at most %d characters", MaxCommentLength)
	}

	comment = &models.Comment{
		UserID:  userUUID,
		PostID:  postUUID,
		Content: content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if user, err := s.users.GetByID(ctx, userUUID); err == nil {
		comment.User = user
	}

	invalidateFeeds(ctx, s.feedCache, s.logger)
	publishEvent(ctx, s.producer, s.logger, userID, queue.EventCommentCreated, queue.CommentEventData{
		CommentID: comment.ID.String(),
		UserID:    userID,
		PostID:    postID,
		Content:   comment.Content,
	})

	s.logger.WithFields(map[string]interface{}{
		"comment_id": comment.ID,
		"user_id":    userID,
		"post_id":    postID,
	}).Info("Comment created successfully")

	return comment, nil
}

func (s *EngagementService) GetPostLikes(ctx context.Context, postID string, offset, limit int) ([]*models.Like, error) {
	postUUID, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	likes, err := s.likes.GetByPostID(ctx, postUUID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get post likes: %w", err)
	}
	return likes, nil
}

func (s *EngagementService) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	postUUID, err := parseID(postID, "post")
	if err != nil {
		return false, err
	}
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return false, err
	}

	return s.likes.IsLiked(ctx, postUUID, userUUID)
}

func (s *EngagementService) GetPostComments(ctx context.Context, postID string, offset, limit int) ([]*models.Comment, error) {
	postUUID, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.GetByPostID(ctx, postUUID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get post comments: %w", err)
	}
	return comments, nil
}

func (s *EngagementService) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	id, err := parseID(commentID, "comment")
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "comment not found")
	}
	return comment, nil
}

// resolve 解析ID并检查用户和帖子存在
func (s *EngagementService) resolve(ctx context.Context, postID, userID string) (uuid.UUID, uuid.UUID, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	postUUID, err := s.requirePost(ctx, postID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	user, err := s.users.GetByID(ctx, userUUID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return uuid.Nil, uuid.Nil, errs.Errorf(errs.ENOTFOUND, "user not found")
	}
	return postUUID, userUUID, nil
}

func (s *EngagementService) requirePost(ctx context.Context, postID string) (uuid.UUID, error) {
	id, err := parseID(postID, "post")
	if err != nil {
		return uuid.Nil, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return uuid.Nil, errs.Errorf(errs.ENOTFOUND, "post not found")
	}
	return id, nil
}

func (s *EngagementService) reload(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "post not found")
	}
	return post, nil
}
