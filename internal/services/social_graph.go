package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/config"
	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/errs"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

type SocialGraphService struct {
	users         UserDirectory
	relationships RelationshipStore
	feedCache     FeedCache
	producer      EventPublisher
	config        *config.GraphConfig
	logger        *logger.Logger
}

func NewSocialGraphService(
	users UserDirectory,
	relationships RelationshipStore,
	feedCache FeedCache,
	producer EventPublisher,
	config *config.GraphConfig,
	logger *logger.Logger,
) *SocialGraphService {
	return &SocialGraphService{
		users:         users,
		relationships: relationships,
		feedCache:     feedCache,
		producer:      producer,
		config:        config,
		logger:        logger,
	}
}

// FollowView 操作后当前用户的关注计数，以及关注边的状态
type FollowView struct {
	UserID    uuid.UUID                 `json:"user_id"`
	Followers int64                     `json:"followers"`
	Following int64                     `json:"following"`
	Status    models.RelationshipStatus `json:"status,omitempty"`
}

func (s *SocialGraphService) Follow(ctx context.Context, followerID, targetID string) (view *FollowView, err error) {
	defer func() { graphOpsTotal.WithLabelValues("follow", resultLabel(err)).Inc() }()

	followerUUID, targetUUID, err := parseUserPair(followerID, targetID)
	if err != nil {
		return nil, err
	}
	if followerUUID == targetUUID {
		return nil, errs.Errorf(errs.EINVALIDOP, "cannot follow yourself")
	}

	if _, err := s.requireUser(ctx, followerUUID); err != nil {
		return nil, err
	}
	target, err := s.requireUser(ctx, targetUUID)
	if err != nil {
		return nil, err
	}

	// 检查是否已经关注，rejected视为已删除
	existing, err := s.relationships.Get(ctx, followerUUID, targetUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow status: %w", err)
	}
	if existing != nil && existing.Status != models.StatusRejected {
		return nil, errs.Errorf(errs.EALREADYEXISTS, "already following or requested")
	}

	status := models.StatusAccepted
	if target.IsPrivate && s.config.PrivateRequiresApproval {
		status = models.StatusPending
	}

	rel := &models.Relationship{
		FollowerID:  followerUUID,
		FollowingID: targetUUID,
		Status:      status,
	}
	created, err := s.relationships.Create(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	if !created {
		return nil, errs.Errorf(errs.EALREADYEXISTS, "already following or requested")
	}

	if status == models.StatusAccepted {
		invalidateUserFeed(ctx, s.feedCache, s.logger, followerUUID)
	}

	publishEvent(ctx, s.producer, s.logger, followerID, queue.EventFollowCreated, queue.FollowEventData{
		FollowerID:  followerID,
		FollowingID: targetID,
		Status:      string(status),
		CreatedAt:   rel.CreatedAt.Format(time.RFC3339),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": targetID,
		"status":       status,
	}).Info("User followed successfully")

	return s.view(ctx, followerUUID, status)
}

func (s *SocialGraphService) Unfollow(ctx context.Context, followerID, targetID string) (view *FollowView, err error) {
	defer func() { graphOpsTotal.WithLabelValues("unfollow", resultLabel(err)).Inc() }()

	followerUUID, targetUUID, err := parseUserPair(followerID, targetID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, targetUUID); err != nil {
		return nil, err
	}

	removed, err := s.relationships.Delete(ctx, followerUUID, targetUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete relationship: %w", err)
	}
	if removed == nil {
		return nil, errs.Errorf(errs.ENOTFOLLOWING, "not following")
	}

	if removed.Status == models.StatusAccepted {
		invalidateUserFeed(ctx, s.feedCache, s.logger, followerUUID)
	}

	publishEvent(ctx, s.producer, s.logger, followerID, queue.EventFollowDeleted, queue.FollowEventData{
		FollowerID:  followerID,
		FollowingID: targetID,
		Status:      string(removed.Status),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": targetID,
	}).Info("User unfollowed successfully")

	return s.view(ctx, followerUUID, "")
}

// AcceptRequest 私密账号通过关注申请
func (s *SocialGraphService) AcceptRequest(ctx context.Context, ownerID, requesterID string) (view *FollowView, err error) {
	defer func() { graphOpsTotal.WithLabelValues("accept", resultLabel(err)).Inc() }()
	return s.resolveRequest(ctx, ownerID, requesterID, models.StatusAccepted)
}

func (s *SocialGraphService) RejectRequest(ctx context.Context, ownerID, requesterID string) (view *FollowView, err error) {
	defer func() { graphOpsTotal.WithLabelValues("reject", resultLabel(err)).Inc() }()
	return s.resolveRequest(ctx, ownerID, requesterID, models.StatusRejected)
}

func (s *SocialGraphService) resolveRequest(ctx context.Context, ownerID, requesterID string, to models.RelationshipStatus) (*FollowView, error) {
	ownerUUID, requesterUUID, err := parseUserPair(ownerID, requesterID)
	if err != nil {
		return nil, err
	}

	changed, err := s.relationships.UpdateStatus(ctx, requesterUUID, ownerUUID, models.StatusPending, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update follow request: %w", err)
	}
	if !changed {
		return nil, errs.Errorf(errs.ENOTFOUND, "follow request not found")
	}

	if to == models.StatusAccepted {
		invalidateUserFeed(ctx, s.feedCache, s.logger, requesterUUID)
		publishEvent(ctx, s.producer, s.logger, requesterID, queue.EventFollowAccepted, queue.FollowEventData{
			FollowerID:  requesterID,
			FollowingID: ownerID,
			Status:      string(to),
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"owner_id":     ownerID,
		"requester_id": requesterID,
		"status":       to,
	}).Info("Follow request resolved")

	return s.view(ctx, ownerUUID, to)
}

func (s *SocialGraphService) GetFollowers(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	id, err := s.parseExistingUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.relationships.GetFollowers(ctx, id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return followers, nil
}

func (s *SocialGraphService) GetFollowing(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	id, err := s.parseExistingUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	following, err := s.relationships.GetFollowing(ctx, id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return following, nil
}

func (s *SocialGraphService) GetPendingRequests(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	requests, err := s.relationships.GetPendingRequests(ctx, id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending requests: %w", err)
	}
	return requests, nil
}

// IsFollowing 只有accepted边才算关注
func (s *SocialGraphService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	followerUUID, targetUUID, err := parseUserPair(followerID, targetID)
	if err != nil {
		return false, err
	}

	rel, err := s.relationships.Get(ctx, followerUUID, targetUUID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}
	return rel != nil && rel.Status == models.StatusAccepted, nil
}

func (s *SocialGraphService) view(ctx context.Context, userID uuid.UUID, status models.RelationshipStatus) (*FollowView, error) {
	followers, err := s.relationships.CountFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	following, err := s.relationships.CountFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count following: %w", err)
	}

	return &FollowView{
		UserID:    userID,
		Followers: followers,
		Following: following,
		Status:    status,
	}, nil
}

func (s *SocialGraphService) requireUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "user %s not found", id)
	}
	return user, nil
}

func (s *SocialGraphService) parseExistingUser(ctx context.Context, userID string) (uuid.UUID, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.requireUser(ctx, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func parseUserPair(a, b string) (uuid.UUID, uuid.UUID, error) {
	first, err := parseID(a, "user")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	second, err := parseID(b, "user")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return first, second, nil
}

// parseID 解析字符串ID，失败返回EVALIDATION
func parseID(id, kind string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errs.Errorf(errs.EVALIDATION, "invalid %s ID: %s", kind, id)
	}
	return parsed, nil
}
