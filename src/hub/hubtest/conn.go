// Package hubtest provides an in-memory types.Conn for tests.
package hubtest

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by MockConn after Close.
var ErrClosed = errors.New("connection closed")

// MockConn implements types.Conn without a real WebSocket. Frames pushed
// with Push are returned by ReadMessage; written frames are recorded.
type MockConn struct {
	mu       sync.Mutex
	written  [][]byte
	readCh   chan []byte
	closed   bool
	closedCh chan struct{}
}

// NewMockConn creates an open MockConn.
func NewMockConn() *MockConn {
	return &MockConn{
		readCh:   make(chan []byte, 16),
		closedCh: make(chan struct{}),
	}
}

// Push queues an inbound frame.
func (m *MockConn) Push(frame string) {
	m.readCh <- []byte(frame)
}

func (m *MockConn) WriteMessage(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.written = append(m.written, cp)
	return nil
}

func (m *MockConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-m.readCh:
		return data, nil
	case <-m.closedCh:
		return nil, ErrClosed
	}
}

func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

// Closed reports whether Close was called.
func (m *MockConn) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Written returns the frames written so far as strings.
func (m *MockConn) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.written))
	for i, w := range m.written {
		out[i] = string(w)
	}
	return out
}

// WaitWritten polls until at least n frames were written or timeout passes,
// then returns what was written.
func (m *MockConn) WaitWritten(n int, timeout time.Duration) []string {
	deadline := time.Now().Add(timeout)
	for {
		got := m.Written()
		if len(got) >= n || time.Now().After(deadline) {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
}
