package services

import (
	"context"
	"time"

	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

// publishEvent 发送领域事件。事务已提交，发送失败只记录日志
func publishEvent(ctx context.Context, producer EventPublisher, log *logger.Logger, key string, eventType queue.EventType, data interface{}) {
	if producer == nil {
		return
	}

	event := queue.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := producer.Publish(ctx, key, event); err != nil {
		log.WithError(err).WithField("event_type", eventType).Error("Failed to publish event")
	}
}
