// Package store defines the persistence contract the relay writes chat
// messages through before fan-out.
package store

import (
	"context"

	"github.com/orchestra-mcp/relay/src/types"
)

// MessageStore durably records chat messages.
type MessageStore interface {
	// RecordMessage returns nil only once msg is durably stored.
	RecordMessage(ctx context.Context, msg types.ChatMessage) error

	// Close releases the underlying connection.
	Close() error
}
