package server

import (
	"context"
	"errors"
	"strings"

	"reelfeed/internal/models"
	"reelfeed/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	chatListLimit       = 50
	messageHistoryLimit = 100
)

// GetChats handles GET /api/chats: the caller's conversations, newest first,
// one entry per peer.
func (s *Server) GetChats(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)

	chats, err := s.messageRepo.ChatList(c.Context(), username, chatListLimit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"chats": chats})
}

// GetMessages handles GET /api/messages/:username: history between the caller
// and the named peer, oldest first.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)
	peer := c.Params("username")

	if _, err := s.userRepo.GetByUsername(c.Context(), peer); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", peer))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	messages, err := s.messageRepo.History(c.Context(), username, peer, messageHistoryLimit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage handles POST /api/messages: persists a private message and
// pushes it to both participants' rooms. The sender's own room gets a copy so
// their other open tabs stay in sync.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)

	var req struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.deliverPrivateMessage(c.Context(), username, req.To, req.Text)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code != "INTERNAL_ERROR" {
			status := fiber.StatusBadRequest
			if appErr.Code == "NOT_FOUND" {
				status = fiber.StatusNotFound
			}
			return models.RespondWithError(c, status, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

// GetOnlineUsers handles GET /api/online: the full presence set.
func (s *Server) GetOnlineUsers(c *fiber.Ctx) error {
	users, err := s.hub.OnlineUsers(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if users == nil {
		users = []string{}
	}
	return c.JSON(fiber.Map{"users": users})
}

// deliverPrivateMessage validates, persists and fans out a private message.
// Shared by the HTTP handler and the websocket event handler so both paths
// apply identical rules.
func (s *Server) deliverPrivateMessage(ctx context.Context, from, to, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if len(text) > models.MaxMessageLength {
		return nil, models.NewValidationError("Message text exceeds maximum length")
	}
	if to == from {
		return nil, models.NewValidationError("You cannot message yourself")
	}

	if _, err := s.userRepo.GetByUsername(ctx, to); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", to)
		}
		return nil, err
	}

	message := &models.Message{
		FromUsername: from,
		ToUsername:   to,
		Text:         text,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	payload := notifications.Encode(notifications.EventPrivateMessage,
		notifications.PrivateMessagePayload{
			From:      from,
			To:        to,
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		})
	s.hub.SendToRoom(ctx, to, payload)
	s.hub.SendToRoom(ctx, from, payload)

	return message, nil
}
