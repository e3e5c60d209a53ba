package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"progresskit/core"
	"progresskit/engine"
)

// Hub fans gamification events out to live subscribers. A subscription can
// be scoped to a single user, or receive everything when the filter is
// empty. Slow subscribers drop events rather than stall the hub.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	user core.UserID // empty means all users
	ch   chan core.Event
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

// Subscribe registers a receiver for one user's events; pass an empty id to
// receive all.
func (h *Hub) Subscribe(user core.UserID, buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.Event, buffer)
	h.subs[id] = subscriber{user: user, ch: ch}
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	receivers := make([]chan core.Event, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.user != "" && sub.user != ev.UserID {
			continue
		}
		receivers = append(receivers, sub.ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- ev:
		default: /* drop if full */
		}
	}
}

// Bridge forwards every event published on the bus into the hub. Returns
// the unsubscribe func.
func Bridge(bus *engine.EventBus, hub *Hub) func() {
	return bus.SubscribeAll(hub.Broadcast)
}

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
