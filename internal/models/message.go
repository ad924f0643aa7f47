package models

import (
	"time"
)

// Message is a persisted private message between two users, addressed by
// username to match the hub's room naming.
type Message struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FromUsername string    `gorm:"size:32;not null;index:idx_messages_from" json:"from"`
	ToUsername   string    `gorm:"size:32;not null;index:idx_messages_to" json:"to"`
	Text         string    `gorm:"size:2000;not null" json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatSummary is one row of the chat list: the latest message exchanged with a peer.
type ChatSummary struct {
	Peer     string    `json:"peer"`
	LastText string    `json:"last_text"`
	LastFrom string    `json:"last_from"`
	LastAt   time.Time `json:"last_at"`
}

// MaxMessageLength bounds private message text after trimming.
const MaxMessageLength = 2000
