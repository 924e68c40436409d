package transport

import (
	"encoding/json"
	"time"
)

// Event names carried on the backend channel. These match the named events
// the backend emits; the Manager republishes them on its EventBus under the
// same names.
const (
	EventConnected     = "connected"
	EventDisconnected  = "disconnected"
	EventMessage       = "message"
	EventMessageStatus = "message_status"
	EventUserTyping    = "user_typing"
	EventUserStatus    = "user_status"
)

// Outbound frame names understood by the backend.
const (
	frameSendMessage  = "send_message"
	frameTyping       = "typing"
	frameOnlineStatus = "online_status"
	frameJoin         = "join_conversation"
	frameLeave        = "leave_conversation"
)

// Frame is the unit of exchange with the backend: a named event plus an
// undecoded payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Attachment is the wire form of an uploaded file reference carried inside
// a message frame.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Category string `json:"category"`
	MIMEType string `json:"mimeType"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
}

// Message is the wire form of a chat message. Exactly one of ConversationID
// and GroupID is set depending on the target.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId,omitempty"`
	GroupID        string       `json:"groupId,omitempty"`
	SenderID       string       `json:"senderId"`
	Content        string       `json:"content"`
	Type           string       `json:"type"`
	Timestamp      time.Time    `json:"timestamp"`
	ParentID       string       `json:"parentId,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	VoiceURL       string       `json:"voiceUrl,omitempty"`
	VoiceDuration  float64      `json:"voiceDuration,omitempty"`
}

// StatusEvent reports a delivery status change for a previously sent message.
type StatusEvent struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// TypingEvent reports a remote user's typing state in a conversation.
type TypingEvent struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// PresenceEvent reports a remote user going online or offline.
type PresenceEvent struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// typingPayload is the outbound body of a typing frame.
type typingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// onlinePayload is the outbound body of an online_status frame.
type onlinePayload struct {
	IsOnline bool `json:"isOnline"`
}

// scopePayload is the outbound body of join/leave frames.
type scopePayload struct {
	ConversationID string `json:"conversationId"`
}
