// Package transport implements the client side of the backend messaging
// channel.
//
// The package is built around three pieces:
//
//   - Transport: a low-level session abstraction that moves JSON frames to
//     and from the backend. Two implementations are provided: a
//     gorilla/websocket transport for live deployments and an in-memory
//     simulator for tests and offline deployments.
//
//   - EventBus: a publish/subscribe hub carrying the named events emitted by
//     the backend (connected, disconnected, message, message_status,
//     user_typing, user_status). Handler registration and removal are
//     symmetric so an owner can always tear down its subscriptions.
//
//   - Manager: the connection manager. It owns the transport session, tracks
//     connection state, decodes inbound frames into typed payloads, and
//     republishes them on the bus.
//
// Example:
//
//	mgr := transport.NewManager(transport.NewSimTransport())
//	id := mgr.Subscribe(transport.EventMessage, func(payload any) {
//	    msg := payload.(*transport.Message)
//	    fmt.Println("received", msg.ID)
//	})
//	defer mgr.Unsubscribe(transport.EventMessage, id)
//
//	if err := mgr.Connect(ctx, "user-1"); err != nil {
//	    log.Fatal(err)
//	}
package transport
