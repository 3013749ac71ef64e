package maestro

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn is the subset of the WebSocket connection surface the client
// uses. gorilla's *websocket.Conn satisfies it; tests substitute fakes.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// dialFunc opens one WebSocket connection. The client holds it as a
// field so tests can count and fail dials without a listener.
type dialFunc func(ctx context.Context, url string) (wsConn, error)

func gorillaDial(timeout time.Duration) dialFunc {
	return func(ctx context.Context, url string) (wsConn, error) {
		dialer := websocket.Dialer{
			HandshakeTimeout: timeout,
		}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
