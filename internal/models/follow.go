package models

import (
	"time"
)

// Follow is a directed edge in the follow graph. Historical rows may carry
// only the followed user's username; FollowingID is nullable for that reason.
// The repository normalizes both shapes to ids before anything else sees them.
type Follow struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	FollowerID        uint      `gorm:"not null;uniqueIndex:idx_follows_edge,priority:1;index" json:"follower_id"`
	FollowingID       *uint     `gorm:"uniqueIndex:idx_follows_edge,priority:2;index" json:"following_id,omitempty"`
	FollowingUsername string    `gorm:"size:32" json:"following_username,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// FollowResult reports what a follow-edge creation actually did.
type FollowResult int

const (
	FollowCreated FollowResult = iota
	FollowAlreadyExists
)

// LikeOutcome reports what a like attempt actually did.
type LikeOutcome int

const (
	LikeCreated LikeOutcome = iota
	LikeAlreadyExists
)
