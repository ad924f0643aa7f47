package models

import (
	"time"
)

// Post moderation statuses.
const (
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusRejected = "rejected"
)

// Post content types.
const (
	PostTypeVideo    = "video"
	PostTypeCarousel = "carousel"
)

// MediaList holds the relative media paths for a post, stored as a JSON column.
type MediaList []string

// Post is a feed entry. Engagement counters are denormalized onto the row and
// maintained atomically by the repository; they are never recomputed from the
// likes/comments/views tables on the read path.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Username    string    `gorm:"size:32;not null;index" json:"username"`
	Title       string    `gorm:"size:200" json:"title"`
	Description string    `gorm:"size:2000" json:"description"`
	Type        string    `gorm:"size:16;not null;default:video" json:"type"`
	Media       MediaList `gorm:"serializer:json" json:"media"`
	Status      string    `gorm:"size:16;not null;default:pending;index:idx_posts_feed,priority:1" json:"status"`

	LikesCount    int64 `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int64 `gorm:"not null;default:0" json:"comments_count"`
	ViewsCount    int64 `gorm:"not null;default:0" json:"views_count"`

	CreatedAt time.Time `gorm:"index:idx_posts_feed,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like records that a user liked a post. The composite unique index is the
// idempotency gate: a second like from the same user is a no-op, not an error.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user,priority:1" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user,priority:2" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostView records that a viewer key (authenticated user id or remote IP) has
// seen a post. The unique index makes the view counter count distinct viewers.
type PostView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_views_post_viewer,priority:1" json:"post_id"`
	ViewerKey string    `gorm:"size:64;not null;uniqueIndex:idx_views_post_viewer,priority:2" json:"viewer_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a user comment on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Username  string    `gorm:"size:32;not null" json:"username"`
	Text      string    `gorm:"size:2000;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxCommentLength bounds comment text after trimming.
const MaxCommentLength = 2000
