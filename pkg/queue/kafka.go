package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// messageReader kafka.Reader中手动提交offset所需的方法
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultHandlerAttempts = 3
	defaultRetryBackoff    = 200 * time.Millisecond
)

type KafkaConsumer struct {
	reader   messageReader
	attempts int
	backoff  time.Duration
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    false,
	}

	return &KafkaProducer{writer: writer}
}

func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1 * time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return newKafkaConsumer(reader, defaultHandlerAttempts, defaultRetryBackoff)
}

func newKafkaConsumer(reader messageReader, attempts int, backoff time.Duration) *KafkaConsumer {
	if attempts < 1 {
		attempts = 1
	}
	return &KafkaConsumer{reader: reader, attempts: attempts, backoff: backoff}
}

// Publish 以key分区发送一条JSON消息，同一用户的事件保持顺序
func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

// Subscribe 逐条拉取消息，处理结束后才提交offset，直到ctx取消。
// handler失败时按指数退避重试，重试耗尽后交给onError并提交，不再重复投递
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler func(context.Context, Message) error, onError func(Message, error)) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if isContextErr(err) {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		msg := Message{
			Key:   string(message.Key),
			Value: message.Value,
			Topic: message.Topic,
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			// 关闭过程中未处理完的消息不提交，重启后重新消费
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if onError != nil {
				onError(msg, err)
			}
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			if isContextErr(err) {
				return ctx.Err()
			}
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, msg Message, handler func(context.Context, Message) error) error {
	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}
		if attempt >= c.attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type Message struct {
	Key   string
	Value []byte
	Topic string
}

type EventType string

const (
	EventUserCreated    EventType = "user_created"
	EventUserUpdated    EventType = "user_updated"
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
	EventFollowCreated  EventType = "follow_created"
	EventFollowAccepted EventType = "follow_accepted"
	EventFollowDeleted  EventType = "follow_deleted"
	EventLikeCreated    EventType = "like_created"
	EventLikeDeleted    EventType = "like_deleted"
	EventCommentCreated EventType = "comment_created"

	EventConversationCreated EventType = "conversation_created"
	EventMessageSent         EventType = "message_sent"
	EventBookmarkAdded       EventType = "bookmark_added"
	EventBookmarkRemoved     EventType = "bookmark_removed"
)

type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RawEvent 消费端使用，Data延迟解码
type RawEvent struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DecodeEvent 解析消息体
func DecodeEvent(msg Message) (*RawEvent, error) {
	var event RawEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// DecodeData 将Data解码到具体的事件结构
func (e *RawEvent) DecodeData(dest interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s event data: %w", e.Type, err)
	}
	return nil
}

type UserEventData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type PostEventData struct {
	PostID    string   `json:"post_id"`
	UserID    string   `json:"user_id"`
	Hashtags  []string `json:"hashtags,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type FollowEventData struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type LikeEventData struct {
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
	LikeCount int64  `json:"like_count"`
}

type CommentEventData struct {
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
	Content   string `json:"content"`
}

type ConversationEventData struct {
	ConversationID string   `json:"conversation_id"`
	Participants   []string `json:"participants"`
}

type MessageEventData struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	RecipientID    string `json:"recipient_id"`
}

type BookmarkEventData struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
}
