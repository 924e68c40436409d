// Package messenger is the real-time messaging core of the Mnada
// application.
//
// It maintains a live connection to the messaging backend, tracks presence
// and typing state, delivers and orders messages, supports threaded replies
// and per-group permission rules, and manages the attachment and voice
// capture pipelines.
//
// Example:
//
//	opts := messenger.NewOptions()
//	m, err := messenger.New(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Kill()
//
//	m.OnMessage(func(msg *messaging.Message) {
//	    fmt.Printf("message from %s: %s\n", msg.SenderID, msg.Content)
//	})
//
//	if err := m.Connect(ctx, "user-1"); err != nil {
//	    log.Fatal(err)
//	}
package messenger
