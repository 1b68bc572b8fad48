package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/pkg/logger"
)

// CounterRecoveryService 计数校正。like_count、comment_count、followers、following
// 都是缓存，以likes、comments和accepted关系为准重新计算
type CounterRecoveryService struct {
	posts     PostCounterStore
	users     UserCounterStore
	feedCache FeedCache
	batchSize int
	logger    *logger.Logger
}

func NewCounterRecoveryService(posts PostCounterStore, users UserCounterStore, feedCache FeedCache, batchSize int, logger *logger.Logger) *CounterRecoveryService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &CounterRecoveryService{
		posts:     posts,
		users:     users,
		feedCache: feedCache,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RecountReport 一次校正的结果
type RecountReport struct {
	PostsScanned int64         `json:"posts_scanned"`
	PostsFixed   int64         `json:"posts_fixed"`
	UsersScanned int64         `json:"users_scanned"`
	UsersFixed   int64         `json:"users_fixed"`
	Duration     time.Duration `json:"duration"`
}

func (s *CounterRecoveryService) RecountAll(ctx context.Context) (*RecountReport, error) {
	start := time.Now()
	report := &RecountReport{}
	s.logger.Info("Starting counter reconciliation")

	scanned, fixed, err := s.recount(ctx, s.posts.ListIDs, s.posts.RecountEngagement)
	report.PostsScanned, report.PostsFixed = scanned, fixed
	if err != nil {
		return report, fmt.Errorf("failed to recount posts: %w", err)
	}

	scanned, fixed, err = s.recount(ctx, s.users.ListIDs, s.users.RecountFollowCounters)
	report.UsersScanned, report.UsersFixed = scanned, fixed
	if err != nil {
		return report, fmt.Errorf("failed to recount users: %w", err)
	}

	counterDriftFixedTotal.WithLabelValues("post").Add(float64(report.PostsFixed))
	counterDriftFixedTotal.WithLabelValues("user").Add(float64(report.UsersFixed))

	if report.PostsFixed > 0 {
		invalidateFeeds(ctx, s.feedCache, s.logger)
	}

	report.Duration = time.Since(start)
	s.logger.WithFields(map[string]interface{}{
		"posts_scanned": report.PostsScanned,
		"posts_fixed":   report.PostsFixed,
		"users_scanned": report.UsersScanned,
		"users_fixed":   report.UsersFixed,
		"duration":      report.Duration.String(),
	}).Info("Counter reconciliation completed")

	return report, nil
}

// recount 按id游标分批校正
func (s *CounterRecoveryService) recount(
	ctx context.Context,
	list func(context.Context, uuid.UUID, int) ([]uuid.UUID, error),
	fix func(context.Context, []uuid.UUID) (int64, error),
) (int64, int64, error) {
	var scanned, fixed int64
	after := uuid.Nil

	for {
		if err := ctx.Err(); err != nil {
			return scanned, fixed, err
		}

		ids, err := list(ctx, after, s.batchSize)
		if err != nil {
			return scanned, fixed, err
		}
		if len(ids) == 0 {
			return scanned, fixed, nil
		}

		n, err := fix(ctx, ids)
		if err != nil {
			return scanned, fixed, err
		}
		scanned += int64(len(ids))
		fixed += n

		if len(ids) < s.batchSize {
			return scanned, fixed, nil
		}
		after = ids[len(ids)-1]
	}
}
