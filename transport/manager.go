package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// ConnState represents the state of the backend session.
type ConnState uint8

const (
	// StateDisconnected means no session is established.
	StateDisconnected ConnState = iota
	// StateConnecting means session establishment is in flight.
	StateConnecting
	// StateConnected means the session is live.
	StateConnected
)

// String returns a human-readable connection state.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Manager is the connection manager. It owns the transport session, decodes
// inbound frames into typed payloads, republishes them on its event bus, and
// exposes the outbound calls of the backend channel. SendMessage reports
// transport acceptance only; delivery confirmation arrives later as a
// message_status event, and a refused send is the caller's signal to mark
// the message failed (there is no automatic retry).
type Manager struct {
	transport Transport
	bus       *EventBus

	mu     sync.Mutex
	state  ConnState
	userID string
	joined map[string]struct{}
}

// NewManager creates a connection manager around the given transport.
func NewManager(t Transport) *Manager {
	m := &Manager{
		transport: t,
		bus:       NewEventBus(),
		joined:    make(map[string]struct{}),
	}
	t.SetReceiveCallback(m.handleFrame)
	return m
}

// Connect establishes the backend session for the given user.
func (m *Manager) Connect(ctx context.Context, userID string) error {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.state = StateConnecting
	m.userID = userID
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"user_id":  userID,
	}).Info("Establishing backend session")

	if err := m.transport.Connect(ctx, userID); err != nil {
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		return err
	}
	return nil
}

// handleFrame decodes an inbound frame and republishes it as a typed event.
// The transport invokes this from a single goroutine, so all subscribers see
// inbound events on one serialized timeline.
func (m *Manager) handleFrame(frame *Frame) {
	switch frame.Event {
	case EventConnected:
		m.mu.Lock()
		m.state = StateConnected
		m.mu.Unlock()
		m.bus.Publish(EventConnected, nil)

	case EventDisconnected:
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		m.bus.Publish(EventDisconnected, nil)

	case EventMessage:
		var msg Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "handleFrame",
				"event":    frame.Event,
				"error":    err.Error(),
			}).Warn("Dropping malformed message frame")
			return
		}
		m.bus.Publish(EventMessage, &msg)

	case EventMessageStatus:
		var ev StatusEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "handleFrame",
				"event":    frame.Event,
				"error":    err.Error(),
			}).Warn("Dropping malformed status frame")
			return
		}
		m.bus.Publish(EventMessageStatus, &ev)

	case EventUserTyping:
		var ev TypingEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return
		}
		m.bus.Publish(EventUserTyping, &ev)

	case EventUserStatus:
		var ev PresenceEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return
		}
		m.bus.Publish(EventUserStatus, &ev)

	default:
		logrus.WithFields(logrus.Fields{
			"function": "handleFrame",
			"event":    frame.Event,
		}).Debug("Ignoring unknown frame event")
	}
}

// send marshals a payload and writes it as a named frame.
func (m *Manager) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return m.transport.Send(&Frame{Event: event, Data: data})
}

// SendMessage hands a message to the transport. The boolean reports whether
// the transport accepted the send attempt, not whether the message was
// delivered.
func (m *Manager) SendMessage(msg *Message) bool {
	if err := m.send(frameSendMessage, msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "SendMessage",
			"message_id": msg.ID,
			"error":      err.Error(),
		}).Warn("Transport refused message send")
		return false
	}
	return true
}

// SendTypingIndicator signals typing state for a conversation.
func (m *Manager) SendTypingIndicator(conversationID string, isTyping bool) error {
	return m.send(frameTyping, typingPayload{ConversationID: conversationID, IsTyping: isTyping})
}

// UpdateOnlineStatus publishes the local user's online state.
func (m *Manager) UpdateOnlineStatus(online bool) error {
	return m.send(frameOnlineStatus, onlinePayload{IsOnline: online})
}

// JoinConversation scopes presence and typing updates to a conversation.
func (m *Manager) JoinConversation(id string) error {
	m.mu.Lock()
	m.joined[id] = struct{}{}
	m.mu.Unlock()
	return m.send(frameJoin, scopePayload{ConversationID: id})
}

// LeaveConversation removes a conversation from the active scope.
func (m *Manager) LeaveConversation(id string) error {
	m.mu.Lock()
	delete(m.joined, id)
	m.mu.Unlock()
	return m.send(frameLeave, scopePayload{ConversationID: id})
}

// Subscribe registers a handler for a named event.
func (m *Manager) Subscribe(event string, handler Handler) HandlerID {
	return m.bus.Subscribe(event, handler)
}

// Unsubscribe removes a handler registered with Subscribe.
func (m *Manager) Unsubscribe(event string, id HandlerID) {
	m.bus.Unsubscribe(event, id)
}

// State returns the current connection state.
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// UserID returns the user the session was established for.
func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// Close tears down the session and drops every event subscription.
func (m *Manager) Close() error {
	err := m.transport.Close()
	m.bus.Close()

	m.mu.Lock()
	m.state = StateDisconnected
	m.joined = make(map[string]struct{})
	m.mu.Unlock()

	return err
}
