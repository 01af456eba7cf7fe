package hub

// Send queues a frame for one registered client. Clients that are no longer
// registered are skipped and false is returned.
func (h *Hub) Send(clientID string, frame []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if !client.enqueue(frame) {
		h.logger.Warn().Str("client_id", clientID).Msg("send buffer full or client closed, dropping")
		return false
	}
	return true
}

// Broadcast queues a frame for every registered member of roomID except the
// client with exceptID. It returns the number of clients that accepted the frame.
func (h *Hub) Broadcast(roomID int64, exceptID string, frame []byte) int {
	h.mu.RLock()
	// Copy recipients to avoid holding the lock during sends.
	recipients := make([]*Client, 0)
	for id, c := range h.clients {
		if id == exceptID {
			continue
		}
		if _, member := c.rooms[roomID]; member {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range recipients {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		h.logger.Warn().
			Str("client_id", c.ID).
			Int64("room_id", roomID).
			Msg("send buffer full or client closed, dropping")
	}
	return delivered
}
