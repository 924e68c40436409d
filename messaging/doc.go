// Package messaging implements the canonical in-memory message ledger.
//
// The Store is the single source of truth for message lists. Outbound sends
// are applied optimistically: the message is appended immediately in the
// sending state and handed to the transport, then reconciled in place when
// the backend confirms or rejects delivery. Inbound messages merge
// idempotently, so duplicate deliveries of the same ID yield one stored
// entry.
//
// Example:
//
//	store := messaging.NewStore(mgr)
//	store.SetSelfID("user-1")
//	msg, err := store.Send(messaging.Target{ConversationID: "c1"}, messaging.Draft{
//	    Content: "hello",
//	    Type:    messaging.TypeText,
//	})
package messaging
