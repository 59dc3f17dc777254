// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/classpoll/models"
)

// DefaultBuffer is the per-subscriber event buffer
const DefaultBuffer = 64

// Client is one subscriber. Send is closed when the client is unsubscribed.
type Client struct {
	ID   string
	Send chan models.Event
}

// Hub fans events out to subscribed connections.
// Membership changes and deliveries share one lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	buffer  int
	closed  bool
}

func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		clients: make(map[string]*Client),
		buffer:  buffer,
	}
}

// Subscribe registers id and returns its client. An existing subscription
// under the same id is replaced and its channel closed.
func (h *Hub) Subscribe(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{ID: id, Send: make(chan models.Event, h.buffer)}
	if h.closed {
		close(c.Send)
		return c
	}
	if old, ok := h.clients[id]; ok {
		close(old.Send)
	}
	h.clients[id] = c
	return c
}

// Unsubscribe removes id and closes its channel
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.Send)
	}
}

// Publish delivers ev to every subscriber
func (h *Hub) Publish(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		h.deliver(c, ev)
	}
}

// SendTo delivers ev to one subscriber. Returns false if id is not subscribed.
func (h *Hub) SendTo(id string, ev models.Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[id]
	if !ok {
		slog.Info("dropping event for missing subscriber", "conn_id", id, "event", ev.Type)
		return false
	}
	return h.deliver(c, ev)
}

// SendToMany delivers ev to each listed subscriber that exists
func (h *Hub) SendToMany(ids []string, ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			h.deliver(c, ev)
		}
	}
}

// deliver never blocks; a full buffer drops the event. Caller holds the lock.
func (h *Hub) deliver(c *Client, ev models.Event) bool {
	select {
	case c.Send <- ev:
		return true
	default:
		slog.Warn("subscriber buffer full, dropping event", "conn_id", c.ID, "event", ev.Type)
		return false
	}
}

// Subscribed reports whether id currently has an open subscription
func (h *Hub) Subscribed(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

// Count returns the number of subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes everyone. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	h.closed = true
}
