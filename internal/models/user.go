// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account. TokenVersion is the revocation epoch: it is
// incremented on logout and password change, which invalidates every
// previously issued credential carrying an older value.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"`
	TokenVersion int       `gorm:"not null;default:0" json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	Bio          string    `gorm:"size:160" json:"bio,omitempty"`
	Website      string    `gorm:"size:200" json:"website,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleAdmin is the role granting access to the admin endpoints.
const RoleAdmin = "admin"

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the public projection used by search results and follower lists.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}
