package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Caption      string    `json:"caption" gorm:"type:text;not null"`
	MediaURL     string    `json:"media_url" gorm:"type:text"`
	Hashtags     []string  `json:"hashtags" gorm:"-"`
	LikeCount    int64     `json:"like_count" gorm:"not null;default:0;index:idx_posts_rank,priority:1,sort:desc"`
	CommentCount int64     `json:"comment_count" gorm:"not null;default:0"`
	IsDeleted    bool      `json:"-" gorm:"default:false;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index;index:idx_posts_rank,priority:2,sort:desc"`
	UpdatedAt    time.Time `json:"updated_at"`

	User     User      `json:"user" gorm:"foreignKey:UserID"`
	Tags     []PostTag `json:"-" gorm:"foreignKey:PostID"`
	Likes    []Like    `json:"likes,omitempty" gorm:"foreignKey:PostID"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

// AfterFind 由预加载的标签还原Hashtags
func (p *Post) AfterFind(tx *gorm.DB) error {
	if len(p.Tags) == 0 {
		return nil
	}
	p.Hashtags = make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		p.Hashtags = append(p.Hashtags, t.Tag)
	}
	return nil
}

// PostTag 帖子与话题标签的关联，用于按标签查询
type PostTag struct {
	PostID uuid.UUID `json:"post_id" gorm:"type:uuid;primaryKey"`
	Tag    string    `json:"tag" gorm:"type:varchar(100);primaryKey;index"`
}

// Like 点赞记录，(user_id, post_id)唯一，构成帖子的点赞用户集合
type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post;index"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Post) TableName() string {
	return "posts"
}

func (PostTag) TableName() string {
	return "post_tags"
}

func (Like) TableName() string {
	return "likes"
}

func (Comment) TableName() string {
	return "comments"
}
