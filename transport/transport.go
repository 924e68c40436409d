package transport

import (
	"context"
	"errors"
)

// ErrNotConnected indicates an operation that requires an established
// session was attempted while disconnected.
var ErrNotConnected = errors.New("transport not connected")

// ErrAlreadyConnected indicates Connect was called on a live session.
var ErrAlreadyConnected = errors.New("transport already connected")

// ReceiveCallback is invoked for every inbound frame from the backend.
type ReceiveCallback func(frame *Frame)

// Transport moves frames between the client and the messaging backend.
// Implementations must invoke the receive callback from a single goroutine
// so inbound events arrive on one serialized timeline.
type Transport interface {
	// Connect establishes a session for the given user. The context bounds
	// session establishment only, not the session lifetime.
	Connect(ctx context.Context, userID string) error

	// Send writes a frame to the backend. It returns ErrNotConnected when
	// no session is established.
	Send(frame *Frame) error

	// SetReceiveCallback registers the inbound frame callback. It must be
	// set before Connect.
	SetReceiveCallback(cb ReceiveCallback)

	// IsConnected reports whether a session is currently established.
	IsConnected() bool

	// Close tears the session down. It is safe to call when disconnected.
	Close() error
}
