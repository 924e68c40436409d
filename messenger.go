package messenger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/CodeWithFin/mnada-web-app-sub000/config"
	"github.com/CodeWithFin/mnada-web-app-sub000/file"
	"github.com/CodeWithFin/mnada-web-app-sub000/group"
	"github.com/CodeWithFin/mnada-web-app-sub000/messaging"
	"github.com/CodeWithFin/mnada-web-app-sub000/notify"
	"github.com/CodeWithFin/mnada-web-app-sub000/presence"
	"github.com/CodeWithFin/mnada-web-app-sub000/recents"
	"github.com/CodeWithFin/mnada-web-app-sub000/search"
	"github.com/CodeWithFin/mnada-web-app-sub000/thread"
	"github.com/CodeWithFin/mnada-web-app-sub000/transport"
	"github.com/CodeWithFin/mnada-web-app-sub000/typing"
	"github.com/CodeWithFin/mnada-web-app-sub000/voice"
	"github.com/CodeWithFin/mnada-web-app-sub000/waveform"
)

// ErrPermissionDenied mirrors group.ErrPermissionDenied at the facade
// boundary: a rejected action never reaches the optimistic write.
var ErrPermissionDenied = group.ErrPermissionDenied

// Options configures a Messenger. Zero-value fields fall back to the
// defaults from NewOptions.
type Options struct {
	// Config carries environment-derived settings.
	Config *config.Config

	// Transport overrides the backend channel. Nil selects a websocket
	// transport when Config.BackendURL is set, otherwise the in-memory
	// simulator.
	Transport transport.Transport

	// Storage overrides the attachment storage collaborator.
	Storage file.Storage

	// Device overrides the audio capture device.
	Device voice.CaptureDevice

	// Notifier overrides the platform notification collaborator.
	Notifier notify.Notifier
}

// NewOptions creates Options with default configuration.
func NewOptions() *Options {
	return &Options{Config: config.Default()}
}

// subscription pairs an event name with its handler ID for teardown.
type subscription struct {
	event string
	id    transport.HandlerID
}

// Messenger wires the messaging subsystems together and routes backend
// events onto one serialized timeline.
type Messenger struct {
	cfg *config.Config

	manager     *transport.Manager
	store       *messaging.Store
	typing      *typing.Coordinator
	presence    *presence.Tracker
	threads     *thread.Index
	groups      *group.Engine
	attachments *file.Pipeline
	recorder    *voice.Recorder
	analyzer    *waveform.Analyzer
	searchIndex *search.Index
	debouncer   *search.Debouncer
	recents     *recents.Store
	gate        *notify.Gate

	mu         sync.Mutex
	subs       []subscription
	activeConv string
	killed     bool

	onMessage    func(*messaging.Message)
	onStatus     func(*messaging.Message)
	onTyping     func(userID, conversationID string, isTyping bool)
	onPresence   func(userID string, online bool)
	onConnection func(transport.ConnState)
}

// New creates a Messenger from the given options.
func New(opts *Options) (*Messenger, error) {
	if opts == nil {
		opts = NewOptions()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	t := opts.Transport
	if t == nil {
		if cfg.BackendURL != "" {
			t = transport.NewWebSocketTransport(cfg.BackendURL)
		} else {
			t = transport.NewSimTransport()
		}
	}
	storage := opts.Storage
	if storage == nil {
		storage = file.NewMemStorage()
	}
	device := opts.Device
	if device == nil {
		device = voice.NewSimDevice()
	}

	recentsStore, err := recents.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open recents store: %w", err)
	}

	mgr := transport.NewManager(t)
	store := messaging.NewStore(mgr)

	m := &Messenger{
		cfg:         cfg,
		manager:     mgr,
		store:       store,
		typing:      typing.NewCoordinatorWithWindow(mgr, cfg.TypingWindow),
		presence:    presence.NewTracker(),
		threads:     thread.NewIndex(store),
		groups:      group.NewEngine(),
		attachments: file.NewPipeline(storage, cfg.UploadBucket),
		recorder:    voice.NewRecorder(device),
		analyzer:    waveform.NewAnalyzer(),
		searchIndex: search.NewIndex(store),
		debouncer:   search.NewDebouncer(cfg.SearchDebounce),
		recents:     recentsStore,
		gate:        notify.NewGate(opts.Notifier),
	}

	m.subscribe()

	logrus.WithFields(logrus.Fields{
		"function": "New",
	}).Info("Messenger assembled")

	return m, nil
}

// subscribe registers the inbound event routes. The transport delivers
// frames from one goroutine, so these handlers form the serialized inbound
// timeline; outbound intents interleave through the stores' own locks.
func (m *Messenger) subscribe() {
	add := func(event string, h transport.Handler) {
		id := m.manager.Subscribe(event, h)
		m.subs = append(m.subs, subscription{event: event, id: id})
	}

	add(transport.EventConnected, func(any) {
		_ = m.manager.UpdateOnlineStatus(true)
		m.notifyConnection(transport.StateConnected)
	})
	add(transport.EventDisconnected, func(any) {
		m.notifyConnection(transport.StateDisconnected)
	})
	add(transport.EventMessage, func(payload any) {
		wire, ok := payload.(*transport.Message)
		if !ok {
			return
		}
		msg, stored := m.store.ApplyInbound(wire)
		if !stored {
			return
		}
		if !msg.Target.IsGroup() {
			m.gate.MessageArrived(msg.Target.ID(), msg.SenderID, msg.Content)
		}
		m.mu.Lock()
		cb := m.onMessage
		m.mu.Unlock()
		if cb != nil {
			cb(msg)
		}
	})
	add(transport.EventMessageStatus, func(payload any) {
		ev, ok := payload.(*transport.StatusEvent)
		if !ok {
			return
		}
		state, ok := messaging.ParseDeliveryState(ev.Status)
		if !ok {
			return
		}
		m.store.ApplyStatus(ev.MessageID, state)
	})
	add(transport.EventUserTyping, func(payload any) {
		ev, ok := payload.(*transport.TypingEvent)
		if !ok {
			return
		}
		m.typing.HandleRemote(ev.UserID, ev.ConversationID, ev.IsTyping)
		m.mu.Lock()
		cb := m.onTyping
		m.mu.Unlock()
		if cb != nil {
			cb(ev.UserID, ev.ConversationID, ev.IsTyping)
		}
	})
	add(transport.EventUserStatus, func(payload any) {
		ev, ok := payload.(*transport.PresenceEvent)
		if !ok {
			return
		}
		m.presence.HandleStatus(ev.UserID, ev.IsOnline)
		m.mu.Lock()
		cb := m.onPresence
		m.mu.Unlock()
		if cb != nil {
			cb(ev.UserID, ev.IsOnline)
		}
	})

	m.store.OnStatusChange(func(msg *messaging.Message) {
		m.mu.Lock()
		cb := m.onStatus
		m.mu.Unlock()
		if cb != nil {
			cb(msg)
		}
	})
}

// Connect establishes the backend session for the user.
func (m *Messenger) Connect(ctx context.Context, userID string) error {
	m.store.SetSelfID(userID)
	return m.manager.Connect(ctx, userID)
}

// SendMessage sends a message to a two-party conversation.
func (m *Messenger) SendMessage(conversationID string, draft messaging.Draft) (*messaging.Message, error) {
	return m.store.Send(messaging.Target{ConversationID: conversationID}, draft)
}

// SendGroupMessage sends a message to a group after the permission engine
// clears the sender. The check runs before the optimistic write, so a
// rejected send leaves no trace in the ledger.
func (m *Messenger) SendGroupMessage(groupID, senderID string, draft messaging.Draft) (*messaging.Message, error) {
	action := group.ActionSendMessage
	if draft.Type != messaging.TypeText {
		action = group.ActionSendMedia
	}
	if !m.groups.CanPerform(groupID, senderID, action) {
		return nil, ErrPermissionDenied
	}
	return m.store.Send(messaging.Target{GroupID: groupID}, draft)
}

// RetryMessage re-sends a failed message. Retry is always user-initiated.
func (m *Messenger) RetryMessage(messageID string) error {
	return m.store.Retry(messageID)
}

// React records an emoji reaction and remembers the emoji as recently used.
func (m *Messenger) React(messageID, emoji, userID string) error {
	if err := m.store.AddReaction(messageID, emoji, userID); err != nil {
		return err
	}
	return m.recents.AddEmoji(emoji)
}

// Search runs a debounced search. The callback receives the results after
// the quiet period; rapid successive calls supersede each other.
func (m *Messenger) Search(query string, filters search.Filters, deliver func([]*messaging.Message)) {
	m.debouncer.Trigger(func() {
		results := m.searchIndex.Search(query, filters)
		if query != "" {
			if err := m.recents.AddSearch(query); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Search",
					"error":    err.Error(),
				}).Warn("Could not persist recent search term")
			}
		}
		deliver(results)
	})
}

// SetActiveConversation switches the on-screen conversation: the previous
// one is left, the new one joined, its unread counter cleared, and the
// notification gate updated.
func (m *Messenger) SetActiveConversation(conversationID string) {
	m.mu.Lock()
	previous := m.activeConv
	m.activeConv = conversationID
	m.mu.Unlock()

	if previous != "" && previous != conversationID {
		_ = m.manager.LeaveConversation(previous)
	}
	if conversationID != "" {
		_ = m.manager.JoinConversation(conversationID)
	}

	m.store.SetActiveConversation(conversationID)
	m.gate.SetActive(conversationID)
	if conversationID != "" {
		m.store.MarkAsRead(conversationID)
	}
}

// EnableNotifications requests notification permission and arms the gate.
func (m *Messenger) EnableNotifications(ctx context.Context) error {
	return m.gate.Enable(ctx)
}

// Waveform renders an audio asset into amplitude buckets sized to the
// given pixel width.
func (m *Messenger) Waveform(asset []byte, width int) []float64 {
	return m.analyzer.Analyze(asset, width)
}

// Store returns the message ledger.
func (m *Messenger) Store() *messaging.Store { return m.store }

// Typing returns the typing coordinator.
func (m *Messenger) Typing() *typing.Coordinator { return m.typing }

// Presence returns the presence tracker.
func (m *Messenger) Presence() *presence.Tracker { return m.presence }

// Threads returns the thread index.
func (m *Messenger) Threads() *thread.Index { return m.threads }

// Groups returns the group permission engine.
func (m *Messenger) Groups() *group.Engine { return m.groups }

// Attachments returns the attachment pipeline.
func (m *Messenger) Attachments() *file.Pipeline { return m.attachments }

// Recorder returns the voice capture pipeline.
func (m *Messenger) Recorder() *voice.Recorder { return m.recorder }

// Recents returns the persisted recents store.
func (m *Messenger) Recents() *recents.Store { return m.recents }

// Connection returns the connection manager.
func (m *Messenger) Connection() *transport.Manager { return m.manager }

// OnMessage registers the inbound message callback.
func (m *Messenger) OnMessage(cb func(*messaging.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = cb
}

// OnMessageStatus registers the delivery state change callback.
func (m *Messenger) OnMessageStatus(cb func(*messaging.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = cb
}

// OnTyping registers the remote typing callback.
func (m *Messenger) OnTyping(cb func(userID, conversationID string, isTyping bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTyping = cb
}

// OnPresence registers the remote presence callback.
func (m *Messenger) OnPresence(cb func(userID string, online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPresence = cb
}

// OnConnectionStatus registers the connection state callback.
func (m *Messenger) OnConnectionStatus(cb func(transport.ConnState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnection = cb
}

func (m *Messenger) notifyConnection(state transport.ConnState) {
	m.mu.Lock()
	cb := m.onConnection
	m.mu.Unlock()
	if cb != nil {
		cb(state)
	}
}

// Kill tears the messenger down: every event subscription is removed before
// the session closes, pending timers are cancelled, and in-flight uploads
// are waited out. No handler runs after Kill returns.
func (m *Messenger) Kill() {
	m.mu.Lock()
	if m.killed {
		m.mu.Unlock()
		return
	}
	m.killed = true
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	for _, sub := range subs {
		m.manager.Unsubscribe(sub.event, sub.id)
	}
	m.debouncer.Stop()
	m.typing.Close()
	if m.recorder.State() == voice.StateRecording {
		_ = m.recorder.Cancel()
	}
	if err := m.manager.Close(); err != nil && !errors.Is(err, transport.ErrNotConnected) {
		logrus.WithFields(logrus.Fields{
			"function": "Kill",
			"error":    err.Error(),
		}).Warn("Transport close reported an error")
	}
	m.attachments.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Kill",
	}).Info("Messenger shut down")
}
