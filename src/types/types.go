package types

import "time"

// ChatMessage is a chat line as handed to the persistence layer.
type ChatMessage struct {
	RoomID    int64     `json:"room_id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientInfo holds metadata about a connected relay client.
type ClientInfo struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
	Rooms       []int64   `json:"rooms"`
}

// Conn abstracts a WebSocket connection for testability.
// Frames are text frames in both directions.
type Conn interface {
	WriteMessage(data []byte) error
	ReadMessage() ([]byte, error)
	Close() error
}
