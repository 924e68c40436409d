package messaging

import (
	"time"

	"github.com/CodeWithFin/mnada-web-app-sub000/transport"
)

// MessageType classifies the content a message carries.
type MessageType uint8

const (
	// TypeText is a plain text message.
	TypeText MessageType = iota
	// TypeImage is a message carrying one or more image attachments.
	TypeImage
	// TypeVoice is a voice message with an audio asset.
	TypeVoice
	// TypeFile is a message carrying generic file attachments.
	TypeFile
	// TypeMixed is a message combining text with attachments of several kinds.
	TypeMixed
)

// String returns the wire name of the message type.
func (t MessageType) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeVoice:
		return "voice"
	case TypeFile:
		return "file"
	case TypeMixed:
		return "mixed"
	default:
		return "text"
	}
}

// ParseMessageType maps a wire name back to a MessageType. Unknown names
// fall back to text.
func ParseMessageType(s string) MessageType {
	switch s {
	case "image":
		return TypeImage
	case "voice":
		return TypeVoice
	case "file":
		return TypeFile
	case "mixed":
		return TypeMixed
	default:
		return TypeText
	}
}

// DeliveryState is the per-message delivery state machine: a message is
// created sending, moves to delivered and then read on backend confirmation,
// or to failed when the transport refuses the send. Failed messages are
// retained for user-visible retry, never silently discarded.
type DeliveryState uint8

const (
	// StateSending means the optimistic write is awaiting confirmation.
	StateSending DeliveryState = iota
	// StateDelivered means the backend confirmed delivery.
	StateDelivered
	// StateRead means the recipient has read the message.
	StateRead
	// StateFailed means the transport refused the send.
	StateFailed
)

// String returns the wire name of the delivery state.
func (s DeliveryState) String() string {
	switch s {
	case StateDelivered:
		return "delivered"
	case StateRead:
		return "read"
	case StateFailed:
		return "failed"
	default:
		return "sending"
	}
}

// ParseDeliveryState maps a wire status name to a DeliveryState.
func ParseDeliveryState(s string) (DeliveryState, bool) {
	switch s {
	case "sending":
		return StateSending, true
	case "delivered":
		return StateDelivered, true
	case "read":
		return StateRead, true
	case "failed":
		return StateFailed, true
	default:
		return StateSending, false
	}
}

// ReplySnapshot is an immutable copy of the parent message captured when a
// reply is created. It never updates, even if the parent later changes or is
// deleted from the ledger.
type ReplySnapshot struct {
	MessageID string
	Content   string
	SenderID  string
	Type      MessageType
	Timestamp time.Time
}

// VoiceAsset references a recorded audio asset attached to a message.
type VoiceAsset struct {
	URL      string
	Duration float64
}

// Target identifies where a message is sent: a two-party conversation or a
// group. Exactly one field is set.
type Target struct {
	ConversationID string
	GroupID        string
}

// ID returns the conversation or group identifier.
func (t Target) ID() string {
	if t.GroupID != "" {
		return t.GroupID
	}
	return t.ConversationID
}

// IsGroup reports whether the target is a group.
func (t Target) IsGroup() bool { return t.GroupID != "" }

// Message is a single entry in the ledger.
type Message struct {
	ID          string
	Target      Target
	SenderID    string
	Content     string
	Type        MessageType
	Timestamp   time.Time
	State       DeliveryState
	ParentID    string
	ReplyTo     *ReplySnapshot
	Attachments []transport.Attachment
	Voice       *VoiceAsset

	// Reactions maps emoji to the set of user IDs that reacted with it.
	Reactions map[string]map[string]struct{}

	// seq is the insertion order, used to break timestamp ties.
	seq uint64
}

// HasReaction reports whether the user reacted to the message with the emoji.
func (m *Message) HasReaction(emoji, userID string) bool {
	set, ok := m.Reactions[emoji]
	if !ok {
		return false
	}
	_, ok = set[userID]
	return ok
}

// ReactionCount returns the number of users that reacted with the emoji.
func (m *Message) ReactionCount(emoji string) int {
	return len(m.Reactions[emoji])
}

// toWire converts the message to its wire form.
func (m *Message) toWire() *transport.Message {
	w := &transport.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		Type:        m.Type.String(),
		Timestamp:   m.Timestamp,
		ParentID:    m.ParentID,
		Attachments: m.Attachments,
	}
	if m.Target.IsGroup() {
		w.GroupID = m.Target.GroupID
	} else {
		w.ConversationID = m.Target.ConversationID
	}
	if m.Voice != nil {
		w.VoiceURL = m.Voice.URL
		w.VoiceDuration = m.Voice.Duration
	}
	return w
}

// fromWire builds a ledger message from its wire form.
func fromWire(w *transport.Message) *Message {
	m := &Message{
		ID:          w.ID,
		SenderID:    w.SenderID,
		Content:     w.Content,
		Type:        ParseMessageType(w.Type),
		Timestamp:   w.Timestamp,
		State:       StateDelivered,
		ParentID:    w.ParentID,
		Attachments: w.Attachments,
		Reactions:   make(map[string]map[string]struct{}),
	}
	if w.GroupID != "" {
		m.Target = Target{GroupID: w.GroupID}
	} else {
		m.Target = Target{ConversationID: w.ConversationID}
	}
	if w.VoiceURL != "" {
		m.Voice = &VoiceAsset{URL: w.VoiceURL, Duration: w.VoiceDuration}
	}
	return m
}

// Conversation is a two-party chat with an unread counter. The counter only
// moves down through MarkAsRead and never goes negative.
type Conversation struct {
	ID           string
	Participants [2]string
	LastMessage  string
	LastSender   string
	LastActivity time.Time
	Unread       int
}
