package models

import (
	"time"
)

// FeedPost is the per-viewer projection of a post served by the feed. The
// Liked and IsFollowing fields depend on who is asking, which is why feed
// pages are cached per viewer.
type FeedPost struct {
	ID            uint      `json:"id"`
	User          string    `json:"user"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Media         []string  `json:"media"`
	CreatedAt     time.Time `json:"createdAt"`
	Views         int64     `json:"views"`
	CommentsCount int64     `json:"commentsCount"`
	LikesCount    int64     `json:"likesCount"`
	Liked         bool      `json:"liked"`
	IsFollowing   bool      `json:"isFollowing"`
}

// FeedPage is one cached, serialized page of the feed.
type FeedPage struct {
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Posts []FeedPost `json:"posts"`
}

// ReelsPage is the response shape for the video-only feed.
type ReelsPage struct {
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	Posts   []FeedPost `json:"posts"`
	HasMore bool       `json:"hasMore"`
}

// Feed modes accepted by the assembler.
const (
	FeedModeAll       = "all"
	FeedModeFollowing = "following"
)
