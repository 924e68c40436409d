package messaging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CodeWithFin/mnada-web-app-sub000/limits"
	"github.com/CodeWithFin/mnada-web-app-sub000/transport"
)

var (
	// ErrEmptyDraft indicates a send with no content, attachments, or voice
	// asset.
	ErrEmptyDraft = errors.New("message has no content")

	// ErrNoTarget indicates a send without a conversation or group target.
	ErrNoTarget = errors.New("message has no target")

	// ErrParentNotFound indicates a reply to a message not present in the
	// ledger; a reply snapshot can only be captured from a stored parent.
	ErrParentNotFound = errors.New("parent message not found")

	// ErrMessageNotFound indicates an unknown message ID.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotFailed indicates a retry of a message that has not failed.
	ErrNotFailed = errors.New("message is not in the failed state")
)

// Sender hands outbound messages to the transport. It reports acceptance of
// the send attempt, not delivery. Implemented by *transport.Manager.
type Sender interface {
	SendMessage(msg *transport.Message) bool
}

// Draft is the caller-supplied portion of an outbound message.
type Draft struct {
	Content     string
	Type        MessageType
	ParentID    string
	Attachments []transport.Attachment
	Voice       *VoiceAsset
}

// StatusCallback is invoked after a message's delivery state changes.
type StatusCallback func(msg *Message)

// InboundCallback is invoked after an inbound message is stored.
type InboundCallback func(msg *Message)

// Store is the canonical in-memory ledger of messages per conversation and
// group. All mutations are serialized through one mutex so an outbound send
// and a simultaneous inbound status update for the same ID can never leave
// inconsistent state.
type Store struct {
	mu sync.Mutex

	selfID        string
	activeConv    string
	byID          map[string]*Message
	byTarget      map[string][]*Message
	conversations map[string]*Conversation
	nextSeq       uint64

	sender    Sender
	onStatus  StatusCallback
	onInbound InboundCallback
}

// NewStore creates an empty ledger backed by the given sender.
func NewStore(sender Sender) *Store {
	return &Store{
		byID:          make(map[string]*Message),
		byTarget:      make(map[string][]*Message),
		conversations: make(map[string]*Conversation),
		sender:        sender,
	}
}

// SetSelfID records the local user, used to attribute outbound messages and
// to skip unread counting for self-sent traffic.
func (s *Store) SetSelfID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfID = userID
}

// SetActiveConversation marks the conversation currently on screen. Inbound
// messages for the active conversation do not bump its unread counter.
func (s *Store) SetActiveConversation(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConv = conversationID
}

// ActiveConversation returns the conversation currently marked active.
func (s *Store) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConv
}

// OnStatusChange registers a callback for delivery state transitions.
func (s *Store) OnStatusChange(cb StatusCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = cb
}

// OnInbound registers a callback for stored inbound messages.
func (s *Store) OnInbound(cb InboundCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInbound = cb
}

// Send constructs a message in the sending state with a client-generated ID,
// appends it to the ledger immediately, and hands it to the transport. If
// the transport refuses the send the message is marked failed and retained
// for user-initiated retry.
func (s *Store) Send(target Target, draft Draft) (*Message, error) {
	if target.ID() == "" {
		return nil, ErrNoTarget
	}
	if draft.Content == "" && len(draft.Attachments) == 0 && draft.Voice == nil {
		return nil, ErrEmptyDraft
	}
	if err := limits.ValidateMessageText(draft.Content); err != nil {
		return nil, err
	}

	s.mu.Lock()

	msg := &Message{
		ID:          uuid.New().String(),
		Target:      target,
		SenderID:    s.selfID,
		Content:     draft.Content,
		Type:        draft.Type,
		Timestamp:   time.Now(),
		State:       StateSending,
		ParentID:    draft.ParentID,
		Attachments: draft.Attachments,
		Voice:       draft.Voice,
		Reactions:   make(map[string]map[string]struct{}),
	}

	if draft.ParentID != "" {
		parent, ok := s.byID[draft.ParentID]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrParentNotFound, draft.ParentID)
		}
		// Snapshot captured at creation time; it never updates even if the
		// parent later changes or is removed.
		msg.ReplyTo = &ReplySnapshot{
			MessageID: parent.ID,
			Content:   parent.Content,
			SenderID:  parent.SenderID,
			Type:      parent.Type,
			Timestamp: parent.Timestamp,
		}
	}

	s.appendLocked(msg)
	s.touchConversationLocked(msg)

	wire := msg.toWire()
	sender := s.sender
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Send",
		"message_id": msg.ID,
		"target_id":  target.ID(),
		"type":       msg.Type.String(),
	}).Info("Optimistic message appended, handing to transport")

	accepted := sender != nil && sender.SendMessage(wire)
	if !accepted {
		s.setStateByID(msg.ID, StateFailed)
		logrus.WithFields(logrus.Fields{
			"function":   "Send",
			"message_id": msg.ID,
		}).Warn("Transport unavailable, message marked failed")
	}

	return msg, nil
}

// Retry re-sends a failed message with its original ID. Retry is explicitly
// user-initiated; the store never retries on its own.
func (s *Store) Retry(messageID string) error {
	s.mu.Lock()
	msg, ok := s.byID[messageID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if msg.State != StateFailed {
		s.mu.Unlock()
		return ErrNotFailed
	}
	msg.State = StateSending
	wire := msg.toWire()
	sender := s.sender
	s.mu.Unlock()

	s.notifyStatus(msg)

	if sender == nil || !sender.SendMessage(wire) {
		s.setStateByID(messageID, StateFailed)
	}
	return nil
}

// ApplyStatus updates a stored message's delivery state in place. The ledger
// entry is never re-appended; unknown IDs are ignored so late status events
// for deleted messages are harmless.
func (s *Store) ApplyStatus(messageID string, state DeliveryState) bool {
	s.mu.Lock()
	msg, ok := s.byID[messageID]
	if !ok {
		s.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function":   "ApplyStatus",
			"message_id": messageID,
		}).Debug("Status event for unknown message, ignoring")
		return false
	}
	msg.State = state
	s.mu.Unlock()

	s.notifyStatus(msg)
	return true
}

// ApplyInbound merges an inbound wire message into the ledger. The merge is
// idempotent: a message whose ID is already present is dropped and the stored
// entry returned. Returns the ledger entry and whether it was newly stored.
func (s *Store) ApplyInbound(w *transport.Message) (*Message, bool) {
	s.mu.Lock()
	if existing, ok := s.byID[w.ID]; ok {
		s.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function":   "ApplyInbound",
			"message_id": w.ID,
		}).Debug("Duplicate inbound message dropped")
		return existing, false
	}

	msg := fromWire(w)
	if msg.ParentID != "" {
		if parent, ok := s.byID[msg.ParentID]; ok {
			msg.ReplyTo = &ReplySnapshot{
				MessageID: parent.ID,
				Content:   parent.Content,
				SenderID:  parent.SenderID,
				Type:      parent.Type,
				Timestamp: parent.Timestamp,
			}
		}
	}

	s.appendLocked(msg)
	s.touchConversationLocked(msg)

	if !msg.Target.IsGroup() && msg.SenderID != s.selfID && msg.Target.ID() != s.activeConv {
		conv := s.conversations[msg.Target.ID()]
		conv.Unread++
	}

	cb := s.onInbound
	s.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
	return msg, true
}

// appendLocked stores a message under its ID and target, assigning the
// insertion sequence used for timestamp tie-breaking.
func (s *Store) appendLocked(msg *Message) {
	msg.seq = s.nextSeq
	s.nextSeq++
	s.byID[msg.ID] = msg
	s.byTarget[msg.Target.ID()] = append(s.byTarget[msg.Target.ID()], msg)
}

// touchConversationLocked upserts the conversation summary for a direct
// message target.
func (s *Store) touchConversationLocked(msg *Message) {
	if msg.Target.IsGroup() {
		return
	}
	conv, ok := s.conversations[msg.Target.ID()]
	if !ok {
		conv = &Conversation{ID: msg.Target.ID()}
		s.conversations[msg.Target.ID()] = conv
	}
	summary := msg.Content
	if summary == "" {
		summary = msg.Type.String()
	}
	conv.LastMessage = summary
	conv.LastSender = msg.SenderID
	conv.LastActivity = msg.Timestamp
}

// Messages returns the messages for a conversation or group, sorted by
// timestamp with ties broken by insertion order. The slice is a copy; the
// messages are the live ledger entries.
func (s *Store) Messages(targetID string) []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byTarget[targetID]
	out := make([]*Message, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].seq < out[j].seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// All returns every message in the ledger in insertion order. Derived views
// (thread index, search) are built over this without duplicating state.
func (s *Store) All() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Message, 0, len(s.byID))
	for _, list := range s.byTarget {
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Get returns a message by ID.
func (s *Store) Get(messageID string) (*Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[messageID]
	return msg, ok
}

// Count returns the number of messages stored for a target.
func (s *Store) Count(targetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTarget[targetID])
}

// Delete removes a message from the ledger. Reply snapshots captured from it
// remain intact on their owning replies.
func (s *Store) Delete(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[messageID]
	if !ok {
		return false
	}
	delete(s.byID, messageID)

	list := s.byTarget[msg.Target.ID()]
	for i, m := range list {
		if m.ID == messageID {
			s.byTarget[msg.Target.ID()] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return true
}

// MarkAsRead zeroes the unread counter for a conversation. It does not
// retroactively alter the delivery status of individual messages.
func (s *Store) MarkAsRead(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		conv.Unread = 0
	}
}

// Unread returns the unread counter for a conversation.
func (s *Store) Unread(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		return conv.Unread
	}
	return 0
}

// Conversation returns a copy of the conversation summary.
func (s *Store) Conversation(conversationID string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, false
	}
	return *conv, true
}

// EnsureConversation registers a two-party conversation ahead of traffic.
func (s *Store) EnsureConversation(conversationID string, participants [2]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		s.conversations[conversationID] = &Conversation{ID: conversationID, Participants: participants}
	}
}

// AddReaction records a user's emoji reaction on a message.
func (s *Store) AddReaction(messageID, emoji, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[messageID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if msg.Reactions == nil {
		msg.Reactions = make(map[string]map[string]struct{})
	}
	if msg.Reactions[emoji] == nil {
		msg.Reactions[emoji] = make(map[string]struct{})
	}
	msg.Reactions[emoji][userID] = struct{}{}
	return nil
}

// RemoveReaction removes a user's emoji reaction from a message.
func (s *Store) RemoveReaction(messageID, emoji, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[messageID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if set, ok := msg.Reactions[emoji]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(msg.Reactions, emoji)
		}
	}
	return nil
}

// setStateByID transitions a message's state and fires the status callback.
func (s *Store) setStateByID(messageID string, state DeliveryState) {
	s.mu.Lock()
	msg, ok := s.byID[messageID]
	if ok {
		msg.State = state
	}
	s.mu.Unlock()

	if ok {
		s.notifyStatus(msg)
	}
}

// notifyStatus fires the status callback outside the store lock.
func (s *Store) notifyStatus(msg *Message) {
	s.mu.Lock()
	cb := s.onStatus
	s.mu.Unlock()
	if cb != nil {
		cb(msg)
	}
}
