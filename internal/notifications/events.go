// Package notifications implements the realtime presence and messaging hub.
package notifications

import (
	"encoding/json"
	"time"
)

// Wire event types. Inbound and outbound events share the same envelope:
// {"type": ..., "payload": ...}.
const (
	EventConnected      = "connected"
	EventOnlineUsers    = "online_users"
	EventTyping         = "typing"
	EventPrivateMessage = "private_message"
	EventError          = "error"
)

// Envelope is the wire frame for every socket event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConnectedPayload greets a client after a successful join.
type ConnectedPayload struct {
	Username string `json:"username"`
}

// OnlineUsersPayload carries the full presence set. The full set is sent on
// every membership change; clients replace their local copy instead of
// applying deltas.
type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

// TypingPayload is a fire-and-forget typing indicator.
type TypingPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PrivateMessagePayload is a delivered private message.
type PrivateMessagePayload struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload reports a rejected inbound event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode builds the wire bytes for an event. Marshal failures cannot happen
// for the payload types above, so the error is swallowed into an empty frame.
func Encode(eventType string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	b, _ := json.Marshal(Envelope{Type: eventType, Payload: raw})
	return b
}
