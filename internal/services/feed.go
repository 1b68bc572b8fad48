package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/config"
	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("social-graph/services")

const defaultAssemblyTimeout = 5 * time.Second

// FeedService 按需组装feed：关注的人加自己，再注入时间窗口内的热门内容
type FeedService struct {
	relationships RelationshipStore
	posts         PostStore
	cache         FeedCache
	config        *config.FeedConfig
	logger        *logger.Logger
	group         singleflight.Group
	now           func() time.Time
}

func NewFeedService(
	relationships RelationshipStore,
	posts PostStore,
	cache FeedCache,
	config *config.FeedConfig,
	logger *logger.Logger,
) *FeedService {
	return &FeedService{
		relationships: relationships,
		posts:         posts,
		cache:         cache,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

// GetFeed 没有内容时返回空切片而不是错误
func (s *FeedService) GetFeed(ctx context.Context, userID string, limit int) ([]*models.Post, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	limit = s.normalizeLimit(limit)

	ctx, span := tracer.Start(ctx, "FeedService.GetFeed")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("limit", limit),
	)

	if s.cache == nil {
		return s.assembleAndRecord(ctx, userUUID, limit)
	}

	key, err := s.cache.Key(ctx, userUUID, limit)
	if err != nil {
		// 缓存不可用时直接读库
		feedCacheTotal.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("Feed cache unavailable")
		return s.assembleAndRecord(ctx, userUUID, limit)
	}

	posts, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		feedCacheTotal.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("Failed to read feed cache")
	} else if ok {
		feedCacheTotal.WithLabelValues("hit").Inc()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return posts, nil
	} else {
		feedCacheTotal.WithLabelValues("miss").Inc()
	}

	// 同一key的并发未命中只组装一次，共享的组装不受单个调用方取消影响
	ch := s.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.assemblyTimeout())
		defer cancel()

		posts, err := s.assembleAndRecord(shared, userUUID, limit)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, posts); err != nil {
			s.logger.WithError(err).Warn("Failed to cache feed")
		}
		return posts, nil
	})

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, ctx.Err().Error())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			return nil, res.Err
		}
		return res.Val.([]*models.Post), nil
	}
}

func (s *FeedService) assembleAndRecord(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Post, error) {
	start := time.Now()
	posts, err := s.assemble(ctx, userID, limit)
	feedAssemblyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	feedSize.Observe(float64(len(posts)))

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"count":   len(posts),
		"elapsed": time.Since(start).String(),
	}).Debug("Feed assembled")
	return posts, nil
}

func (s *FeedService) assemble(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Post, error) {
	following, err := s.relationships.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get following ids: %w", err)
	}
	authors := append(following, userID)

	since := s.now().Add(-s.config.TrendingWindow)
	posts, err := s.posts.ListFeedCandidates(ctx, authors, since, limit, s.config.EngagementPreview)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed candidates: %w", err)
	}

	SortFeed(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *FeedService) assemblyTimeout() time.Duration {
	if s.config.AssemblyTimeout > 0 {
		return s.config.AssemblyTimeout
	}
	return defaultAssemblyTimeout
}

func (s *FeedService) normalizeLimit(limit int) int {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxFeedSize {
		limit = s.config.MaxFeedSize
	}
	return limit
}

// SortFeed 按点赞数降序，点赞数相同按发布时间降序
func SortFeed(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].LikeCount != posts[j].LikeCount {
			return posts[i].LikeCount > posts[j].LikeCount
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
