package repository

import (
	"context"

	"reelfeed/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for private message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	History(ctx context.Context, userA, userB string, limit int) ([]models.Message, error)
	ChatList(ctx context.Context, username string, limit int) ([]models.ChatSummary, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// History returns the conversation between two users, oldest first.
func (r *messageRepository) History(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("(from_username = ? AND to_username = ?) OR (from_username = ? AND to_username = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// ChatList returns one row per conversation peer, carrying the latest message
// exchanged, newest conversation first.
func (r *messageRepository) ChatList(ctx context.Context, username string, limit int) ([]models.ChatSummary, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("from_username = ? OR to_username = ?", username, username).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Messages arrive newest first, so the first message seen per peer is the
	// latest one.
	seen := make(map[string]struct{})
	var chats []models.ChatSummary
	for _, m := range messages {
		peer := m.ToUsername
		if peer == username {
			peer = m.FromUsername
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		chats = append(chats, models.ChatSummary{
			Peer:     peer,
			LastText: m.Text,
			LastFrom: m.FromUsername,
			LastAt:   m.CreatedAt,
		})
		if len(chats) >= limit {
			break
		}
	}
	return chats, nil
}
