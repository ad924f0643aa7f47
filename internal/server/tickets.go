package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const wsTicketTTL = 30 * time.Second

// wsTicket is a single-use websocket credential. It carries the revocation
// epoch it was issued under, so a logout between issuance and redemption
// invalidates the ticket along with every other credential.
type wsTicket struct {
	UserID       uint `json:"uid"`
	TokenVersion int  `json:"tv"`
}

// localTicketStore holds tickets in process memory when Redis is absent.
// Like the rest of the degraded mode this only works on a single instance:
// the redeeming connection must land on the process that issued the ticket.
type localTicketStore struct {
	mu      sync.Mutex
	tickets map[string]localTicket
}

type localTicket struct {
	ticket    wsTicket
	expiresAt time.Time
}

func newLocalTicketStore() *localTicketStore {
	return &localTicketStore{tickets: make(map[string]localTicket)}
}

func (s *localTicketStore) Put(id string, t wsTicket, ttl time.Duration) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.tickets {
		if now.After(v.expiresAt) {
			delete(s.tickets, k)
		}
	}
	s.tickets[id] = localTicket{ticket: t, expiresAt: now.Add(ttl)}
}

// Take redeems the ticket, removing it either way.
func (s *localTicketStore) Take(id string) (wsTicket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lt, ok := s.tickets[id]
	if !ok {
		return wsTicket{}, false
	}
	delete(s.tickets, id)
	if time.Now().After(lt.expiresAt) {
		return wsTicket{}, false
	}
	return lt.ticket, true
}

func wsTicketKey(id string) string {
	return fmt.Sprintf("ws_ticket:%s", id)
}

// storeTicket writes the ticket to Redis when available, locally otherwise.
func (s *Server) storeTicket(ctx context.Context, id string, t wsTicket) error {
	if s.redis == nil {
		s.wsTickets.Put(id, t, wsTicketTTL)
		return nil
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, wsTicketKey(id), payload, wsTicketTTL).Err()
}

// takeTicket redeems the ticket. GETDEL makes the Redis path single-use even
// under concurrent redemption attempts.
func (s *Server) takeTicket(ctx context.Context, id string) (wsTicket, bool) {
	if s.redis == nil {
		return s.wsTickets.Take(id)
	}
	payload, err := s.redis.GetDel(ctx, wsTicketKey(id)).Result()
	if err != nil {
		return wsTicket{}, false
	}
	var t wsTicket
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return wsTicket{}, false
	}
	return t, true
}
