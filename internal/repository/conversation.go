package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/social-graph/social-graph/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate 按参与者对查找会话，不存在时创建；并发创建由唯一索引收敛到同一条。
// 第二个返回值表示本次是否新建
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userID, peerID uuid.UUID) (*models.Conversation, bool, error) {
	a, b := models.OrderedPair(userID, peerID)
	db := r.db.WithContext(ctx)

	conv := models.Conversation{UserAID: a, UserBID: b}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Omit("UserA", "UserB").
		Create(&conv)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", result.Error)
	}

	var existing models.Conversation
	if err := db.Preload("UserA").Preload("UserB").
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &existing, result.RowsAffected == 1, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListByUser 用户参与的会话，最近有消息的在前
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	if err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// AddMessage 写入消息并在同一事务中刷新会话的last_message和updated_at
func (r *ConversationRepository) AddMessage(ctx context.Context, msg *models.Message, preview string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender").Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			UpdateColumns(map[string]interface{}{
				"last_message": preview,
				"updated_at":   msg.CreatedAt,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

// ListMessages 取最近的limit条消息(跳过最新的offset条)，按时间正序返回
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
