package providers

import (
	"context"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/orchestra-mcp/relay/src/types"
)

// Accept runs one connection from handshake to teardown. A connection whose
// token fails verification is closed without any frame being sent. Accept
// returns once the transport has closed and the client has been removed.
func (p *RelayPlugin) Accept(conn types.Conn, token string) {
	userID, err := p.verifier.Verify(token)
	if err != nil {
		p.logger.Debug().Err(err).Msg("handshake rejected")
		_ = conn.Close()
		return
	}

	client := hub.NewClient(uuid.New().String(), userID, conn, p.hub, p.cfg.SendBuffer)
	if !p.hub.Insert(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	// In-flight store calls outlive the connection that started them.
	client.ReadPump(func(c *hub.Client, data []byte) {
		p.service.Dispatch(context.Background(), c, data)
	})
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type fasthttpConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newFasthttpConn(conn *websocket.Conn, writeTimeout time.Duration, readLimit int64) *fasthttpConn {
	if readLimit > 0 {
		conn.SetReadLimit(readLimit)
	}
	return &fasthttpConn{conn: conn, writeTimeout: writeTimeout}
}

func (f *fasthttpConn) WriteMessage(data []byte) error {
	if f.writeTimeout > 0 {
		if err := f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout)); err != nil {
			return err
		}
	}
	return f.conn.WriteMessage(websocket.TextMessage, data)
}

func (f *fasthttpConn) ReadMessage() ([]byte, error) {
	_, data, err := f.conn.ReadMessage()
	return data, err
}

func (f *fasthttpConn) Close() error { return f.conn.Close() }
