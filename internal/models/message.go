package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation 两个用户之间的私信会话。参与者按id升序存在UserAID/UserBID，
// 同一对用户只有一个会话
type Conversation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserAID     uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair;check:chk_conversation_order,user_a_id < user_b_id"`
	UserBID     uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair;index"`
	LastMessage string    `json:"last_message" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"index"`

	UserA        User   `json:"-" gorm:"foreignKey:UserAID"`
	UserB        User   `json:"-" gorm:"foreignKey:UserBID"`
	Participants []User `json:"participants" gorm:"-"`
}

// AfterFind 由预加载的两端用户填充Participants
func (c *Conversation) AfterFind(tx *gorm.DB) error {
	c.Participants = c.Participants[:0]
	for _, u := range []User{c.UserA, c.UserB} {
		if u.ID != uuid.Nil {
			c.Participants = append(c.Participants, u)
		}
	}
	return nil
}

// HasParticipant 判断用户是否属于该会话
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Peer 返回会话中的另一方
func (c *Conversation) Peer(userID uuid.UUID) uuid.UUID {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// OrderedPair 按字节序排列两个用户id，与数据库uuid比较规则一致
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index:idx_messages_conversation,priority:1"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	Text           string    `json:"text" gorm:"type:text"`
	MediaURL       string    `json:"media_url,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_messages_conversation,priority:2,sort:desc"`

	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

// Bookmark 用户收藏的帖子，(user_id, post_id)唯一
type Bookmark struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_bookmark_user_post"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_bookmark_user_post;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Message) TableName() string {
	return "messages"
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
