package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/errs"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

// BookmarkService 帖子收藏，只对收藏者本人可见
type BookmarkService struct {
	users     UserDirectory
	posts     PostStore
	bookmarks BookmarkStore
	producer  EventPublisher
	logger    *logger.Logger
}

func NewBookmarkService(users UserDirectory, posts PostStore, bookmarks BookmarkStore, producer EventPublisher, logger *logger.Logger) *BookmarkService {
	return &BookmarkService{
		users:     users,
		posts:     posts,
		bookmarks: bookmarks,
		producer:  producer,
		logger:    logger,
	}
}

func (s *BookmarkService) Bookmark(ctx context.Context, postID, userID string) (err error) {
	defer func() { engagementOpsTotal.WithLabelValues("bookmark", resultLabel(err)).Inc() }()

	postUUID, userUUID, err := s.resolve(ctx, postID, userID)
	if err != nil {
		return err
	}

	added, err := s.bookmarks.Add(ctx, userUUID, postUUID)
	if err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	if !added {
		return errs.Errorf(errs.EALREADYEXISTS, "post already bookmarked")
	}

	publishEvent(ctx, s.producer, s.logger, userID, queue.EventBookmarkAdded, queue.BookmarkEventData{
		UserID: userID,
		PostID: postID,
	})
	return nil
}

func (s *BookmarkService) Unbookmark(ctx context.Context, postID, userID string) (err error) {
	defer func() { engagementOpsTotal.WithLabelValues("unbookmark", resultLabel(err)).Inc() }()

	userUUID, err := parseID(userID, "user")
	if err != nil {
		return err
	}
	postUUID, err := parseID(postID, "post")
	if err != nil {
		return err
	}

	// 帖子被删除后仍允许取消收藏
	removed, err := s.bookmarks.Remove(ctx, userUUID, postUUID)
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if !removed {
		return errs.Errorf(errs.ENOTFOUND, "post not bookmarked")
	}

	publishEvent(ctx, s.producer, s.logger, userID, queue.EventBookmarkRemoved, queue.BookmarkEventData{
		UserID: userID,
		PostID: postID,
	})
	return nil
}

// GetBookmarkedPosts 已删除的帖子不返回
func (s *BookmarkService) GetBookmarkedPosts(ctx context.Context, userID string, offset, limit int) ([]*models.Post, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	posts, err := s.bookmarks.ListPosts(ctx, userUUID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarked posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *BookmarkService) resolve(ctx context.Context, postID, userID string) (uuid.UUID, uuid.UUID, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	postUUID, err := parseID(postID, "post")
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

	post, err := s.posts.GetByID(ctx, postUUID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return uuid.Nil, uuid.Nil, errs.Errorf(errs.ENOTFOUND, "post not found")
	}
	return postUUID, userUUID, nil
}
