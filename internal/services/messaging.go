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

const (
	MaxMessageLength = 2000

	// 会话列表中展示的最后一条消息摘要
	lastMessagePreviewLength = 100
	mediaMessagePreview      = "Media"
)

// MessagingService 一对一私信。只有会话双方可以读写消息
type MessagingService struct {
	users         UserDirectory
	conversations ConversationStore
	producer      EventPublisher
	logger        *logger.Logger
}

func NewMessagingService(users UserDirectory, conversations ConversationStore, producer EventPublisher, logger *logger.Logger) *MessagingService {
	return &MessagingService{
		users:         users,
		conversations: conversations,
		producer:      producer,
		logger:        logger,
	}
}

type SendMessageRequest struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url"`
}

func (s *MessagingService) ListConversations(ctx context.Context, userID string, offset, limit int) ([]*models.Conversation, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	convs, err := s.conversations.ListByUser(ctx, userUUID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	return convs, nil
}

// GetOrCreateConversation 与peer的会话，重复调用返回同一个
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, userID, peerID string) (conv *models.Conversation, err error) {
	defer func() { messagingOpsTotal.WithLabelValues("open", resultLabel(err)).Inc() }()

	userUUID, peerUUID, err := parseUserPair(userID, peerID)
	if err != nil {
		return nil, err
	}
	if userUUID == peerUUID {
		return nil, errs.Errorf(errs.EINVALIDOP, "cannot start a conversation with yourself")
	}
	for _, id := range []uuid.UUID{userUUID, peerUUID} {
		if err := s.requireUser(ctx, id); err != nil {
			return nil, err
		}
	}

	conv, created, err := s.conversations.GetOrCreate(ctx, userUUID, peerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if created {
		publishEvent(ctx, s.producer, s.logger, conv.ID.String(), queue.EventConversationCreated, queue.ConversationEventData{
			ConversationID: conv.ID.String(),
			Participants:   []string{conv.UserAID.String(), conv.UserBID.String()},
		})
		s.logger.WithFields(map[string]interface{}{
			"conversation_id": conv.ID,
			"user_id":         userID,
			"peer_id":         peerID,
		}).Info("Conversation created")
	}
	return conv, nil
}

// ListMessages 按时间正序返回，offset从最新一条开始计
func (s *MessagingService) ListMessages(ctx context.Context, conversationID, userID string, offset, limit int) ([]*models.Message, error) {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.conversations.ListMessages(ctx, conv.ID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}

// SendMessage 文本和媒体至少有一个
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, userID string, req *SendMessageRequest) (msg *models.Message, err error) {
	defer func() { messagingOpsTotal.WithLabelValues("send", resultLabel(err)).Inc() }()

	text := strings.TrimSpace(req.Text)
	mediaURL := strings.TrimSpace(req.MediaURL)
	if text == "" && mediaURL == "" {
		return nil, errs.Errorf(errs.EVALIDATION, "message text or media is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, errs.Errorf(errs.EVALIDATION, "message must be at most %d characters", MaxMessageLength)
	}

	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	senderUUID, _ := uuid.Parse(userID)

	msg = &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderUUID,
		Text:           text,
		MediaURL:       mediaURL,
	}
	if err := s.conversations.AddMessage(ctx, msg, lastMessagePreview(text)); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if sender, err := s.users.GetByID(ctx, senderUUID); err == nil {
		msg.Sender = sender
	}

	publishEvent(ctx, s.producer, s.logger, conv.ID.String(), queue.EventMessageSent, queue.MessageEventData{
		MessageID:      msg.ID.String(),
		ConversationID: conv.ID.String(),
		SenderID:       userID,
		RecipientID:    conv.Peer(senderUUID).String(),
	})
	return msg, nil
}

func (s *MessagingService) participantConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	userUUID, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	convUUID, err := parseID(conversationID, "conversation")
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetByID(ctx, convUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, errs.Errorf(errs.ENOTFOUND, "conversation not found")
	}
	if !conv.HasParticipant(userUUID) {
		return nil, errs.Errorf(errs.EFORBIDDEN, "not a participant of this conversation")
	}
	return conv, nil
}

func (s *MessagingService) requireUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return errs.Errorf(errs.ENOTFOUND, "user %s not found", id)
	}
	return nil
}

func lastMessagePreview(text string) string {
	if text == "" {
		return mediaMessagePreview
	}
	if utf8.RuneCountInString(text) <= lastMessagePreviewLength {
		return text
	}
	return string([]rune(text)[:lastMessagePreviewLength])
}
