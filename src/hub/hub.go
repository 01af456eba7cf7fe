// Package hub is the process-wide registry of live relay connections and
// their room memberships.
package hub

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClientNotFound is returned for operations on an unregistered client.
var ErrClientNotFound = errors.New("client not found")

// Hub maps connection ids to clients. All room-set edits and reads happen
// under mu.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// New creates an empty Hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.With().Str("component", "hub").Logger(),
	}
}

// Insert registers a client with an empty room set. It reports false if the
// id is already taken.
func (h *Hub) Insert(c *Client) bool {
	h.mu.Lock()
	if _, exists := h.clients[c.ID]; exists {
		h.mu.Unlock()
		return false
	}
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().
		Str("client_id", c.ID).
		Int64("user_id", c.UserID).
		Int("clients", count).
		Msg("client registered")
	return true
}

// Remove drops a client and its whole room set in one step. Removing a
// client that is not registered is a no-op.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; !ok || cur != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	rooms := len(c.rooms)
	c.rooms = make(map[int64]struct{})
	count := len(h.clients)
	h.mu.Unlock()

	c.Close()
	h.logger.Info().
		Str("client_id", c.ID).
		Int("rooms", rooms).
		Int("clients", count).
		Msg("client unregistered")
}

// Join adds roomID to the client's room set. It reports whether the set changed.
func (h *Hub) Join(clientID string, roomID int64) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return false, ErrClientNotFound
	}
	if _, member := c.rooms[roomID]; member {
		return false, nil
	}
	c.rooms[roomID] = struct{}{}
	return true, nil
}

// Leave removes roomID from the client's room set. It reports whether the set changed.
func (h *Hub) Leave(clientID string, roomID int64) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return false, ErrClientNotFound
	}
	if _, member := c.rooms[roomID]; !member {
		return false, nil
	}
	delete(c.rooms, roomID)
	return true, nil
}

// IsMember reports whether a registered client has joined roomID.
func (h *Hub) IsMember(clientID string, roomID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	_, member := c.rooms[roomID]
	return member
}

// CloseAll closes every registered transport. Each read pump then removes
// its own client.
func (h *Hub) CloseAll() int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Disconnect(); err != nil {
			h.logger.Debug().Err(err).Str("client_id", c.ID).Msg("close transport")
		}
	}
	return len(clients)
}
