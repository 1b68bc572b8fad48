package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"github.com/social-graph/social-graph/pkg/cache"
	"github.com/social-graph/social-graph/pkg/logger"
)

// FeedCache feed读穿缓存。key中带全局代数和用户代数，失效只需INCR对应代数。
type FeedCache interface {
	Key(ctx context.Context, userID uuid.UUID, limit int) (string, error)
	Get(ctx context.Context, key string) ([]*models.Post, bool, error)
	Set(ctx context.Context, key string, posts []*models.Post) error
	// InvalidateAll 帖子、点赞、评论变化影响所有人的feed
	InvalidateAll(ctx context.Context) error
	// InvalidateUser 关注关系变化只影响关注者自己的feed
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

const feedGlobalGenKey = "feed:gen"

func feedUserGenKey(userID uuid.UUID) string {
	return fmt.Sprintf("feed:gen:user:%s", userID.String())
}

func feedKey(userID uuid.UUID, globalGen, userGen int64, limit int) string {
	return fmt.Sprintf("feed:%s:g%d:u%d:n%d", userID.String(), globalGen, userGen, limit)
}

// RedisFeedCache 基于Redis的FeedCache
type RedisFeedCache struct {
	cache  *cache.RedisClient
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisFeedCache(cache *cache.RedisClient, ttl time.Duration, logger *logger.Logger) *RedisFeedCache {
	return &RedisFeedCache{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisFeedCache) Key(ctx context.Context, userID uuid.UUID, limit int) (string, error) {
	gens, err := c.cache.MGetInt64(ctx, feedGlobalGenKey, feedUserGenKey(userID))
	if err != nil {
		return "", fmt.Errorf("failed to read feed generations: %w", err)
	}
	return feedKey(userID, gens[0], gens[1], limit), nil
}

func (c *RedisFeedCache) Get(ctx context.Context, key string) ([]*models.Post, bool, error) {
	var posts []*models.Post
	if err := c.cache.GetJSON(ctx, key, &posts); err != nil {
		if cache.IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached feed: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, true, nil
}

func (c *RedisFeedCache) Set(ctx context.Context, key string, posts []*models.Post) error {
	if err := c.cache.SetJSON(ctx, key, posts, c.ttl); err != nil {
		return fmt.Errorf("failed to cache feed: %w", err)
	}
	return nil
}

func (c *RedisFeedCache) InvalidateAll(ctx context.Context) error {
	if _, err := c.cache.Incr(ctx, feedGlobalGenKey); err != nil {
		return fmt.Errorf("failed to bump feed generation: %w", err)
	}
	return nil
}

func (c *RedisFeedCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	key := feedUserGenKey(userID)
	if _, err := c.cache.Incr(ctx, key); err != nil {
		return fmt.Errorf("failed to bump user feed generation: %w", err)
	}
	// 旧代数的缓存靠TTL过期，代数key本身保留更久即可
	if err := c.cache.Expire(ctx, key, 30*c.ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to set feed generation expiration")
	}
	return nil
}

// invalidateFeeds 失效全局feed缓存，失败只记录日志，旧缓存由TTL兜底
func invalidateFeeds(ctx context.Context, feedCache FeedCache, log *logger.Logger) {
	if feedCache == nil {
		return
	}
	if err := feedCache.InvalidateAll(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate feed cache")
	}
}

func invalidateUserFeed(ctx context.Context, feedCache FeedCache, log *logger.Logger, userID uuid.UUID) {
	if feedCache == nil {
		return
	}
	if err := feedCache.InvalidateUser(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate user feed cache")
	}
}
