package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/orchestra-mcp/relay/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestRecordMessage(t *testing.T) {
	s, _ := openTempStore(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.RecordMessage(context.Background(), types.ChatMessage{
		RoomID:    42,
		UserID:    7,
		Message:   "hi",
		CreatedAt: at,
	}))

	var roomID, userID, createdAt int64
	var message string
	err := s.sqlDB.QueryRow(`SELECT room_id, user_id, message, created_at FROM chats`).
		Scan(&roomID, &userID, &message, &createdAt)
	require.NoError(t, err)
	assert.Equal(t, int64(42), roomID)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "hi", message)
	assert.Equal(t, at.UnixMilli(), createdAt)
}

func TestRecordMessageDefaultsTimestamp(t *testing.T) {
	s, _ := openTempStore(t)
	before := time.Now().UnixMilli()
	require.NoError(t, s.RecordMessage(context.Background(), types.ChatMessage{RoomID: 1, UserID: 1, Message: "x"}))

	var createdAt int64
	require.NoError(t, s.sqlDB.QueryRow(`SELECT created_at FROM chats`).Scan(&createdAt))
	assert.GreaterOrEqual(t, createdAt, before)
}

func TestRecordMessageCanceledContext(t *testing.T) {
	s, _ := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.RecordMessage(ctx, types.ChatMessage{RoomID: 1}), context.Canceled)
}

func TestRecordMessageAfterClose(t *testing.T) {
	s, _ := openTempStore(t)
	require.NoError(t, s.Close())
	assert.Error(t, s.RecordMessage(context.Background(), types.ChatMessage{RoomID: 1, Message: "x"}))
}

func TestReopenKeepsRowsAndSkipsMigrations(t *testing.T) {
	s, path := openTempStore(t)
	require.NoError(t, s.RecordMessage(context.Background(), types.ChatMessage{RoomID: 1, UserID: 2, Message: "kept"}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	var rows, applied int
	require.NoError(t, reopened.sqlDB.QueryRow(`SELECT COUNT(1) FROM chats`).Scan(&rows))
	require.NoError(t, reopened.sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, applied)
}
