package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username    string         `json:"username" gorm:"uniqueIndex;not null"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-" gorm:"not null"`
	DisplayName string         `json:"display_name"`
	Avatar      string         `json:"avatar"`
	Bio         string         `json:"bio"`
	IsPrivate   bool           `json:"is_private" gorm:"default:false"`
	Followers   int64          `json:"followers" gorm:"default:0"` // 缓存值，以relationships为准
	Following   int64          `json:"following" gorm:"default:0"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

type RelationshipStatus string

const (
	StatusPending  RelationshipStatus = "pending"
	StatusAccepted RelationshipStatus = "accepted"
	StatusRejected RelationshipStatus = "rejected"
)

// Relationship 关注关系，一条记录同时回答"谁关注了谁"的两个方向
type Relationship struct {
	ID          uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FollowerID  uuid.UUID          `json:"follower_id" gorm:"type:uuid;not null;uniqueIndex:idx_follower_following;check:chk_no_self_follow,follower_id <> following_id"`
	FollowingID uuid.UUID          `json:"following_id" gorm:"type:uuid;not null;uniqueIndex:idx_follower_following;index"`
	Status      RelationshipStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	Follower  User `json:"-" gorm:"foreignKey:FollowerID"`
	Following User `json:"-" gorm:"foreignKey:FollowingID"`
}

func (User) TableName() string {
	return "users"
}

func (Relationship) TableName() string {
	return "relationships"
}
