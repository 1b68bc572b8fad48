package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/social-graph/social-graph/internal/services"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

var workerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "social_worker_events_total",
	Help: "Feed events consumed by the worker",
}, []string{"type", "result"})

type Subscriber interface {
	Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error, onError func(queue.Message, error)) error
}

// EngagementPurger 清理已删除帖子的点赞、评论和话题
type EngagementPurger interface {
	PurgeEngagement(ctx context.Context, postID uuid.UUID) error
}

type Recounter interface {
	RecountAll(ctx context.Context) (*services.RecountReport, error)
}

type FeedWorker struct {
	feedCache       services.FeedCache
	posts           EngagementPurger
	recovery        Recounter
	consumer        Subscriber
	recountInterval time.Duration
	logger          *logger.Logger
}

func NewFeedWorker(
	feedCache services.FeedCache,
	posts EngagementPurger,
	recovery Recounter,
	consumer Subscriber,
	recountInterval time.Duration,
	logger *logger.Logger,
) *FeedWorker {
	return &FeedWorker{
		feedCache:       feedCache,
		posts:           posts,
		recovery:        recovery,
		consumer:        consumer,
		recountInterval: recountInterval,
		logger:          logger,
	}
}

// Start 阻塞消费事件直到ctx取消，计数校正在后台按间隔执行
func (w *FeedWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting feed worker...")

	if w.recovery != nil && w.recountInterval > 0 {
		go w.startRecountJob(ctx)
	}

	return w.consumer.Subscribe(ctx, w.handleMessage, func(msg queue.Message, err error) {
		w.logger.WithError(err).WithFields(map[string]interface{}{
			"topic": msg.Topic,
			"key":   msg.Key,
		}).Error("Failed to handle event")
	})
}

func (w *FeedWorker) handleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg)
	if err != nil {
		workerEventsTotal.WithLabelValues("unknown", "decode_error").Inc()
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventPostCreated, queue.EventLikeCreated, queue.EventLikeDeleted, queue.EventCommentCreated:
		err = w.handleEngagementChanged(ctx)
	case queue.EventPostDeleted:
		err = w.handlePostDeleted(ctx, event)
	case queue.EventFollowCreated, queue.EventFollowAccepted, queue.EventFollowDeleted:
		err = w.handleFollowChanged(ctx, event)
	case queue.EventUserCreated, queue.EventUserUpdated:
		// 用户资料变化不影响feed
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		workerEventsTotal.WithLabelValues(string(event.Type), "ignored").Inc()
		return nil
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	workerEventsTotal.WithLabelValues(string(event.Type), result).Inc()
	return err
}

// 服务端已经同步失效过一次，这里兜住API进程写缓存失败的情况
func (w *FeedWorker) handleEngagementChanged(ctx context.Context) error {
	if err := w.feedCache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to invalidate feeds: %w", err)
	}
	return nil
}

func (w *FeedWorker) handlePostDeleted(ctx context.Context, event *queue.RawEvent) error {
	var data queue.PostEventData
	if err := event.DecodeData(&data); err != nil {
		return err
	}

	postID, err := uuid.Parse(data.PostID)
	if err != nil {
		return fmt.Errorf("invalid post ID: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"post_id": data.PostID,
		"user_id": data.UserID,
	}).Info("Handling post deleted event")

	if err := w.posts.PurgeEngagement(ctx, postID); err != nil {
		return fmt.Errorf("failed to purge engagement: %w", err)
	}
	return w.handleEngagementChanged(ctx)
}

func (w *FeedWorker) handleFollowChanged(ctx context.Context, event *queue.RawEvent) error {
	var data queue.FollowEventData
	if err := event.DecodeData(&data); err != nil {
		return err
	}

	followerID, err := uuid.Parse(data.FollowerID)
	if err != nil {
		return fmt.Errorf("invalid follower ID: %w", err)
	}

	if err := w.feedCache.InvalidateUser(ctx, followerID); err != nil {
		return fmt.Errorf("failed to invalidate follower feed: %w", err)
	}
	return nil
}

func (w *FeedWorker) startRecountJob(ctx context.Context) {
	ticker := time.NewTicker(w.recountInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runRecount(ctx)
		}
	}
}

func (w *FeedWorker) runRecount(ctx context.Context) {
	report, err := w.recovery.RecountAll(ctx)
	if err != nil {
		w.logger.WithError(err).Error("Counter recount failed")
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"posts_scanned": report.PostsScanned,
		"posts_fixed":   report.PostsFixed,
		"users_scanned": report.UsersScanned,
		"users_fixed":   report.UsersFixed,
		"duration":      report.Duration.String(),
	}).Info("Counter recount finished")
}
