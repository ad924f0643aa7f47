package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"reelfeed/internal/middleware"
	"reelfeed/internal/models"
	"reelfeed/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles the realtime endpoint: presence, typing indicators
// and private message delivery. The client's room is its own username; events
// addressed to a user land in that room on whichever instance holds the
// connection.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Set by AuthRequired (ticket or token path).
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage,
				notifications.Encode(notifications.EventError,
					notifications.ErrorPayload{Message: "unauthorized"}))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)
		username, _ := conn.Locals("username").(string)
		if username == "" {
			user, err := s.userRepo.GetByID(ctx, userID)
			if err != nil {
				log.Printf("WebSocket: failed to load user %d: %v", userID, err)
				_ = conn.Close()
				return
			}
			username = user.Username
		}

		client, err := s.hub.Register(ctx, userID, username, conn)
		if err != nil {
			log.Printf("WebSocket: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage,
				notifications.Encode(notifications.EventError,
					notifications.ErrorPayload{Message: err.Error()}))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = s.handleSocketEvent

		// Greeting, then the current presence snapshot for this client alone.
		client.TrySend(notifications.Encode(notifications.EventConnected,
			notifications.ConnectedPayload{Username: username}))
		if users, perr := s.hub.OnlineUsers(ctx); perr == nil {
			client.TrySend(notifications.Encode(notifications.EventOnlineUsers,
				notifications.OnlineUsersPayload{Users: users}))
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// handleSocketEvent dispatches one inbound websocket frame.
func (s *Server) handleSocketEvent(client *notifications.Client, raw []byte) {
	ctx := context.Background()

	var env notifications.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		client.TrySend(notifications.Encode(notifications.EventError,
			notifications.ErrorPayload{Message: "invalid event format"}))
		return
	}

	switch env.Type {
	case notifications.EventTyping:
		var p notifications.TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.To == "" {
			return
		}

		// Typing indicators are fire-and-forget; spam is silently dropped.
		id := fmt.Sprintf("user:%d", client.UserID)
		allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
		if !allowed {
			return
		}

		s.hub.SendToRoom(ctx, p.To, notifications.Encode(notifications.EventTyping,
			notifications.TypingPayload{From: client.Username, To: p.To}))

	case notifications.EventPrivateMessage:
		var p notifications.PrivateMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			client.TrySend(notifications.Encode(notifications.EventError,
				notifications.ErrorPayload{Message: "invalid event format"}))
			return
		}

		// Same ceiling as the HTTP send endpoint.
		id := fmt.Sprintf("user:%d", client.UserID)
		allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_message", id, 30, time.Minute)
		if !allowed {
			client.TrySend(notifications.Encode(notifications.EventError,
				notifications.ErrorPayload{Message: "rate limit exceeded"}))
			return
		}

		if _, err := s.deliverPrivateMessage(ctx, client.Username, p.To, p.Text); err != nil {
			msg := "failed to send message"
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code != "INTERNAL_ERROR" {
				msg = appErr.Message
			}
			client.TrySend(notifications.Encode(notifications.EventError,
				notifications.ErrorPayload{Message: msg}))
		}

	default:
		client.TrySend(notifications.Encode(notifications.EventError,
			notifications.ErrorPayload{Message: "unknown event type: " + env.Type}))
	}
}
