package hub

import (
	"sync"
	"time"

	"github.com/orchestra-mcp/relay/src/types"
)

// DefaultSendBuffer is the outbound queue depth used when none is given.
const DefaultSendBuffer = 256

// Client is one authenticated connection in the registry. Its room set is
// guarded by the owning Hub's lock.
type Client struct {
	ID     string
	UserID int64

	conn        types.Conn
	hub         *Hub
	send        chan []byte
	connectedAt time.Time
	rooms       map[int64]struct{}

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a client for an authenticated connection. The client is
// not visible to other connections until it is inserted into the hub.
func NewClient(id string, userID int64, conn types.Conn, h *Hub, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		ID:          id,
		UserID:      userID,
		conn:        conn,
		hub:         h,
		send:        make(chan []byte, sendBuffer),
		connectedAt: time.Now(),
		rooms:       make(map[int64]struct{}),
		done:        make(chan struct{}),
	}
}

// enqueue queues a frame for the write pump. It reports false when the
// client is closed or its buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// ReadPump reads frames until the transport fails and passes each one to
// handle in arrival order. On return the client has been removed from the
// hub and its transport closed.
func (c *Client) ReadPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
	}()

	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(c, data)
	}
}

// WritePump writes queued frames to the transport.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(frame); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Disconnect closes the transport. The read pump then tears the client down.
func (c *Client) Disconnect() error {
	return c.conn.Close()
}

// Close signals the client to stop its pumps.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.send)
	}
}
