// Package ws is the realtime surface. A Hub fans events out to room
// subscribers; the Gateway upgrades authenticated HTTP connections and
// polices which rooms a session may join.
package ws

import (
	"context"
	"sync"
	"time"
)

// Room names are structured keys: community:<buildingId>,
// thread:<threadId>, user:<userId>.
func CommunityRoom(buildingID string) string { return "community:" + buildingID }
func ThreadRoom(threadID string) string     { return "thread:" + threadID }
func UserRoom(userID string) string         { return "user:" + userID }

// Event is a single realtime payload addressed to a room.
type Event struct {
	Room      string    `json:"room"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	rooms map[string]bool
	ch    chan Event
}

// Hub fan-outs events to all subscribers of a room.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers a subscriber for the given rooms and returns a channel
// that receives matching events. The channel is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, rooms ...string) <-chan Event {
	ch := make(chan Event, 16)
	set := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		set[room] = true
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = &subscriber{rooms: set, ch: ch}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to every subscriber of its room.
func (h *Hub) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.rooms[evt.Room] {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

// Subscribers reports how many connections are listening on a room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, sub := range h.subs {
		if sub.rooms[room] {
			n++
		}
	}
	return n
}
