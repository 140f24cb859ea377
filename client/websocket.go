package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketDialer implements Dialer on top of gorilla/websocket.
type WebSocketDialer struct {
	// ReadLimit bounds inbound frame size; 0 leaves the library default.
	ReadLimit int64
}

func (d *WebSocketDialer) Dial(ctx context.Context, rawURL string, events ConnEvents) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid WebSocket URL: %w", err)
	}

	// If no scheme is provided, assume ws://
	if u.Scheme == "" {
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WebSocket server: %w", err)
	}

	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}

	ws := &wsConn{conn: conn}
	go ws.readPump(events)
	return ws, nil
}

type wsConn struct {
	conn *websocket.Conn

	// gorilla allows at most one concurrent writer
	wmu sync.Mutex
}

func (c *wsConn) WriteText(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) WriteBinary(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsConn) Close(code int, reason string) error {
	c.wmu.Lock()
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	c.wmu.Unlock()
	if err != nil {
		// Log error but don't return it - we still want to close the connection
		slog.Warn("Failed to send close message", "error", err)
	}
	return c.conn.Close()
}

func (c *wsConn) readPump(events ConnEvents) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			reason := err.Error()
			if closeErr, ok := err.(*websocket.CloseError); ok {
				code = closeErr.Code
				reason = closeErr.Text
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				if events.OnError != nil {
					events.OnError(err)
				}
			}
			if events.OnClose != nil {
				events.OnClose(code, reason)
			}
			return
		}

		switch messageType {
		case websocket.TextMessage:
			if events.OnText != nil {
				events.OnText(data)
			}
		case websocket.BinaryMessage:
			if events.OnBinary != nil {
				events.OnBinary(data)
			}
		}
	}
}
