package hub

import (
	"testing"
	"time"

	"github.com/orchestra-mcp/relay/src/hub/hubtest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return New(zerolog.Nop())
}

// registerClient creates, inserts, and starts the write pump of a mock client.
func registerClient(t *testing.T, h *Hub, id string, userID int64) (*Client, *hubtest.MockConn) {
	t.Helper()
	conn := hubtest.NewMockConn()
	c := NewClient(id, userID, conn, h, 8)
	require.True(t, h.Insert(c))
	go c.WritePump()
	t.Cleanup(func() { h.Remove(c) })
	return c, conn
}

func TestInsertAndRemove(t *testing.T) {
	h := newTestHub()
	c1, _ := registerClient(t, h, "c1", 1)
	_, _ = registerClient(t, h, "c2", 2)
	assert.Equal(t, 2, h.ClientCount())
	assert.Equal(t, []string{"c1", "c2"}, h.ConnectedClients())

	dup := NewClient("c1", 9, hubtest.NewMockConn(), h, 1)
	assert.False(t, h.Insert(dup), "duplicate id must not replace the live client")

	h.Remove(c1)
	assert.Equal(t, 1, h.ClientCount())
	assert.Nil(t, h.ClientInfo("c1"))

	// Removing twice is harmless.
	h.Remove(c1)
	assert.Equal(t, 1, h.ClientCount())
}

func TestRemoveIgnoresStaleClientWithSameID(t *testing.T) {
	h := newTestHub()
	_, liveConn := registerClient(t, h, "same", 1)
	stale := NewClient("same", 2, hubtest.NewMockConn(), h, 1)

	h.Remove(stale)
	require.NotNil(t, h.ClientInfo("same"))
	assert.Equal(t, int64(1), h.ClientInfo("same").UserID)
	assert.False(t, liveConn.Closed())
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newTestHub()
	registerClient(t, h, "c1", 1)

	changed, err := h.Join("c1", 42)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = h.Join("c1", 42)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []int64{42}, h.ClientInfo("c1").Rooms)
	assert.True(t, h.IsMember("c1", 42))
}

func TestLeaveNeverJoined(t *testing.T) {
	h := newTestHub()
	registerClient(t, h, "c1", 1)

	changed, err := h.Leave("c1", 99)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, h.ClientInfo("c1").Rooms)

	_, _ = h.Join("c1", 5)
	changed, err = h.Leave("c1", 5)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, h.IsMember("c1", 5))
}

func TestMembershipUnknownClient(t *testing.T) {
	h := newTestHub()
	_, err := h.Join("ghost", 1)
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = h.Leave("ghost", 1)
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.False(t, h.IsMember("ghost", 1))
}

func TestBroadcastSkipsSenderAndNonMembers(t *testing.T) {
	h := newTestHub()
	_, a := registerClient(t, h, "a", 1)
	_, b := registerClient(t, h, "b", 2)
	_, c := registerClient(t, h, "c", 3)
	_, _ = h.Join("a", 42)
	_, _ = h.Join("b", 42)
	_, _ = h.Join("c", 7)

	n := h.Broadcast(42, "a", []byte("frame"))
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{"frame"}, b.WaitWritten(1, time.Second))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, a.Written())
	assert.Empty(t, c.Written())
}

func TestRemovedClientNotTargeted(t *testing.T) {
	h := newTestHub()
	_, _ = registerClient(t, h, "a", 1)
	b, bConn := registerClient(t, h, "b", 2)
	_, _ = h.Join("a", 42)
	_, _ = h.Join("b", 42)

	h.Remove(b)
	assert.Equal(t, 0, h.Broadcast(42, "a", []byte("frame")))
	assert.False(t, h.Send("b", []byte("ack")))
	assert.Equal(t, map[int64]int{42: 1}, h.Rooms())
	assert.Empty(t, bConn.Written())
}

func TestSendToClient(t *testing.T) {
	h := newTestHub()
	_, conn := registerClient(t, h, "target", 1)

	assert.True(t, h.Send("target", []byte("joined room")))
	assert.Equal(t, []string{"joined room"}, conn.WaitWritten(1, time.Second))
	assert.False(t, h.Send("nonexistent", []byte("x")))
}

func TestFullBufferDropsFrame(t *testing.T) {
	h := newTestHub()
	c := NewClient("slow", 1, hubtest.NewMockConn(), h, 1)
	require.True(t, h.Insert(c))
	t.Cleanup(func() { h.Remove(c) })

	// No write pump, so the second frame has nowhere to go.
	assert.True(t, h.Send("slow", []byte("one")))
	assert.False(t, h.Send("slow", []byte("two")))
	assert.Equal(t, 1, h.ClientCount())
}

func TestReadPumpDispatchesAndTearsDown(t *testing.T) {
	h := newTestHub()
	conn := hubtest.NewMockConn()
	c := NewClient("reader", 1, conn, h, 4)
	require.True(t, h.Insert(c))
	_, _ = h.Join("reader", 3)

	got := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		c.ReadPump(func(_ *Client, data []byte) { got <- string(data) })
		close(done)
	}()

	conn.Push("first")
	conn.Push("second")
	assert.Equal(t, "first", <-got)
	assert.Equal(t, "second", <-got)

	require.NoError(t, c.Disconnect())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not return after close")
	}
	assert.Zero(t, h.ClientCount())
	assert.Empty(t, h.Rooms())
	assert.False(t, c.enqueue([]byte("late")))
}

func TestCloseAll(t *testing.T) {
	h := newTestHub()
	_, a := registerClient(t, h, "a", 1)
	_, b := registerClient(t, h, "b", 2)

	assert.Equal(t, 2, h.CloseAll())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}
