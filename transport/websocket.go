package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketTransport is the live backend channel: JSON frames over a single
// websocket connection. There is no automatic reconnect; when the read pump
// observes an error it emits a disconnected frame and the session ends.
// Retry is a user-initiated action at a higher layer.
type WebSocketTransport struct {
	baseURL string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	receive   ReceiveCallback
	writeMu   sync.Mutex
}

// NewWebSocketTransport creates a transport dialing the given base URL
// (ws:// or wss://). The user ID is appended as a query parameter on connect.
func NewWebSocketTransport(baseURL string) *WebSocketTransport {
	return &WebSocketTransport{baseURL: baseURL}
}

// SetReceiveCallback registers the inbound frame callback.
func (w *WebSocketTransport) SetReceiveCallback(cb ReceiveCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.receive = cb
}

// Connect dials the backend and starts the read pump.
func (w *WebSocketTransport) Connect(ctx context.Context, userID string) error {
	w.mu.Lock()
	if w.connected {
		w.mu.Unlock()
		return ErrAlreadyConnected
	}
	w.mu.Unlock()

	u, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"url":      u.Host,
		"user_id":  userID,
	}).Info("Dialing messaging backend")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial backend: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	cb := w.receive
	w.mu.Unlock()

	if cb != nil {
		cb(&Frame{Event: EventConnected})
	}

	go w.readPump(conn)

	return nil
}

// readPump decodes inbound frames until the connection fails. All callback
// invocations happen on this goroutine.
func (w *WebSocketTransport) readPump(conn *websocket.Conn) {
	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "readPump",
				"error":    err.Error(),
			}).Warn("Backend connection lost")

			w.mu.Lock()
			wasConnected := w.connected
			w.connected = false
			w.conn = nil
			cb := w.receive
			w.mu.Unlock()

			if wasConnected && cb != nil {
				cb(&Frame{Event: EventDisconnected})
			}
			return
		}

		w.mu.Lock()
		cb := w.receive
		w.mu.Unlock()

		if cb != nil {
			cb(&frame)
		}
	}
}

// Send writes a frame to the backend.
func (w *WebSocketTransport) Send(frame *Frame) error {
	w.mu.Lock()
	conn := w.conn
	connected := w.connected
	w.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	// gorilla/websocket permits one concurrent writer.
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// IsConnected reports whether the session is established.
func (w *WebSocketTransport) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// Close shuts the connection down.
func (w *WebSocketTransport) Close() error {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.connected = false
	w.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
