package notifications

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"reelfeed/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub maps rooms (usernames) to their connected clients and keeps the
// presence set in step with membership. When a Notifier is wired in, events
// travel through Redis pub/sub so every instance delivers to its own
// clients; without one the hub degrades to direct local delivery.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}

	presence PresenceSet
	notifier *Notifier

	log *observability.WSLogger
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "rooms hub" }

// NewHub creates a hub over the given presence set. notifier may be nil for
// single-instance operation.
func NewHub(presence PresenceSet, notifier *Notifier) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]struct{}),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		presence: presence,
		notifier: notifier,
		log:      observability.NewWSLogger("rooms"),
	}
}

// Register adds a connection to the user's room. The first connection in a
// room marks the user online and triggers a presence broadcast.
func (h *Hub) Register(ctx context.Context, userID uint, username string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	room, ok := h.rooms[username]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[username] = room
	}

	if len(room) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID, username)
	room[client] = struct{}{}
	h.totalConns++
	firstConn := len(room) == 1
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	h.log.LogConnect(ctx, userID, username)

	if firstConn {
		if err := h.presence.Add(ctx, username); err != nil {
			log.Printf("presence add failed for %s: %v", username, err)
		}
		h.BroadcastPresence(ctx)
	}

	return client, nil
}

// UnregisterClient removes a connection. The last connection leaving a room
// marks the user offline and triggers a presence broadcast.
func (h *Hub) UnregisterClient(client *Client) {
	ctx := context.Background()

	h.mu.Lock()
	removed := false
	lastConn := false
	if room, ok := h.rooms[client.Username]; ok {
		if _, exists := room[client]; exists {
			delete(room, client)
			h.totalConns--
			removed = true
		}
		if len(room) == 0 {
			delete(h.rooms, client.Username)
			lastConn = true
		}
	}
	h.mu.Unlock()

	if !removed {
		return
	}

	observability.WebSocketConnectionsTotal.Dec()
	h.log.LogDisconnect(ctx, client.UserID, client.Username, "connection closed")

	if lastConn {
		if err := h.presence.Remove(ctx, client.Username); err != nil {
			log.Printf("presence remove failed for %s: %v", client.Username, err)
		}
		h.BroadcastPresence(ctx)
	}
}

// Deliver sends raw bytes to every connection in a room on this instance.
func (h *Hub) Deliver(room string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[room]; ok {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.rooms {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// SendToRoom routes an event to a room across all instances. With a notifier
// the event goes through Redis and comes back via the subscriber, including
// to this instance; without one it is delivered directly.
func (h *Hub) SendToRoom(ctx context.Context, room string, message []byte) {
	observability.WebSocketEventsTotal.WithLabelValues("room_send").Inc()
	if h.notifier != nil {
		if err := h.notifier.PublishRoom(ctx, room, message); err == nil {
			return
		}
		// Publish failed; fall back to local delivery so single-instance
		// setups keep working through a Redis outage.
	}
	h.Deliver(room, message)
}

// BroadcastPresence pushes the full online-user set to every client on every
// instance.
func (h *Hub) BroadcastPresence(ctx context.Context) {
	users, err := h.presence.List(ctx)
	if err != nil {
		log.Printf("presence list failed: %v", err)
		return
	}
	if users == nil {
		users = []string{}
	}
	message := Encode(EventOnlineUsers, OnlineUsersPayload{Users: users})

	observability.WebSocketEventsTotal.WithLabelValues(EventOnlineUsers).Inc()
	if h.notifier != nil {
		if err := h.notifier.PublishPresence(ctx, message); err == nil {
			return
		}
	}
	h.BroadcastAll(message)
}

// OnlineUsers returns the current presence set.
func (h *Hub) OnlineUsers(ctx context.Context) ([]string, error) {
	return h.presence.List(ctx)
}

// StartWiring connects the Notifier to this hub: room messages are delivered
// to local members, presence snapshots to everyone.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartRoomSubscriber(ctx, func(channel, payload string) {
		if channel == presenceChannel {
			h.BroadcastAll([]byte(payload))
			return
		}
		room, ok := strings.CutPrefix(channel, roomChannelPrefix)
		if !ok || room == "" {
			log.Printf("invalid room channel: %s", channel)
			return
		}
		h.Deliver(room, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	for room, clients := range h.rooms {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for room %s: %v", room, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for room %s: %v", room, err)
			}
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	close(h.done)

	return nil
}
