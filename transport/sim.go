package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// SimTransport is an in-memory backend channel. It accepts every frame while
// "connected", records outbound traffic, and lets a test or an offline
// deployment inject inbound events. Delivery acknowledgments can be enabled
// so sent messages are automatically confirmed, which is enough to exercise
// the full optimistic-write/reconcile cycle without a live backend.
type SimTransport struct {
	mu        sync.Mutex
	connected bool
	receive   ReceiveCallback
	sent      []*Frame

	// AutoAck, when set, answers every send_message frame with a delivered
	// message_status event.
	AutoAck bool

	// FailSends, when set, makes Send report ErrNotConnected regardless of
	// connection state. Used to exercise the failed-send path.
	FailSends bool
}

// NewSimTransport creates a disconnected simulator.
func NewSimTransport() *SimTransport {
	return &SimTransport{}
}

// SetReceiveCallback registers the inbound frame callback.
func (s *SimTransport) SetReceiveCallback(cb ReceiveCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receive = cb
}

// Connect marks the simulator connected and emits a connected frame.
func (s *SimTransport) Connect(_ context.Context, userID string) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.connected = true
	cb := s.receive
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"user_id":  userID,
	}).Debug("Simulated transport connected")

	if cb != nil {
		cb(&Frame{Event: EventConnected})
	}
	return nil
}

// Send records the frame and, when AutoAck is enabled, confirms message
// sends with a delivered status event.
func (s *SimTransport) Send(frame *Frame) error {
	s.mu.Lock()
	if !s.connected || s.FailSends {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.sent = append(s.sent, frame)
	autoAck := s.AutoAck
	cb := s.receive
	s.mu.Unlock()

	if autoAck && frame.Event == frameSendMessage && cb != nil {
		var msg Message
		if err := json.Unmarshal(frame.Data, &msg); err == nil {
			data, _ := json.Marshal(StatusEvent{MessageID: msg.ID, Status: "delivered"})
			cb(&Frame{Event: EventMessageStatus, Data: data})
		}
	}
	return nil
}

// Inject delivers an inbound frame as if it arrived from the backend.
func (s *SimTransport) Inject(frame *Frame) {
	s.mu.Lock()
	cb := s.receive
	s.mu.Unlock()

	if cb != nil {
		cb(frame)
	}
}

// InjectMessage delivers an inbound message event.
func (s *SimTransport) InjectMessage(msg *Message) {
	data, _ := json.Marshal(msg)
	s.Inject(&Frame{Event: EventMessage, Data: data})
}

// InjectStatus delivers an inbound message_status event.
func (s *SimTransport) InjectStatus(messageID, status string) {
	data, _ := json.Marshal(StatusEvent{MessageID: messageID, Status: status})
	s.Inject(&Frame{Event: EventMessageStatus, Data: data})
}

// InjectTyping delivers an inbound user_typing event.
func (s *SimTransport) InjectTyping(userID, conversationID string, isTyping bool) {
	data, _ := json.Marshal(TypingEvent{UserID: userID, ConversationID: conversationID, IsTyping: isTyping})
	s.Inject(&Frame{Event: EventUserTyping, Data: data})
}

// InjectPresence delivers an inbound user_status event.
func (s *SimTransport) InjectPresence(userID string, online bool) {
	data, _ := json.Marshal(PresenceEvent{UserID: userID, IsOnline: online})
	s.Inject(&Frame{Event: EventUserStatus, Data: data})
}

// SentFrames returns a copy of the outbound frames recorded so far.
func (s *SimTransport) SentFrames() []*Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Frame, len(s.sent))
	copy(out, s.sent)
	return out
}

// IsConnected reports whether the simulator is connected.
func (s *SimTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Close disconnects the simulator and emits a disconnected frame.
func (s *SimTransport) Close() error {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	cb := s.receive
	s.mu.Unlock()

	if wasConnected && cb != nil {
		cb(&Frame{Event: EventDisconnected})
	}
	return nil
}
