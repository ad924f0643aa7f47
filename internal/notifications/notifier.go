package notifications

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
)

const (
	roomChannelPrefix = "rooms:msg:"
	presenceChannel   = "rooms:presence"
)

// Notifier publishes room-addressed events into Redis so every instance's hub
// can deliver them to its locally connected clients.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// RoomChannel derives the Redis channel name for a room.
func RoomChannel(room string) string {
	return roomChannelPrefix + room
}

// PublishRoom sends an event payload to a room's channel.
func (n *Notifier) PublishRoom(ctx context.Context, room string, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, RoomChannel(room), payload).Err()
}

// PublishPresence sends a presence snapshot to every instance.
func (n *Notifier) PublishPresence(ctx context.Context, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, presenceChannel, payload).Err()
}

// StartRoomSubscriber subscribes to the room and presence channels and calls
// onMessage for each incoming message.
func (n *Notifier) StartRoomSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, roomChannelPrefix+"*", presenceChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in RoomSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
