package messenger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeWithFin/mnada-web-app-sub000/group"
	"github.com/CodeWithFin/mnada-web-app-sub000/messaging"
	"github.com/CodeWithFin/mnada-web-app-sub000/notify"
	"github.com/CodeWithFin/mnada-web-app-sub000/search"
	"github.com/CodeWithFin/mnada-web-app-sub000/transport"
	"github.com/CodeWithFin/mnada-web-app-sub000/voice"
)

func newTestMessenger(t *testing.T) (*Messenger, *transport.SimTransport) {
	t.Helper()

	sim := transport.NewSimTransport()
	opts := NewOptions()
	opts.Config.StatePath = filepath.Join(t.TempDir(), "recents.json")
	opts.Config.SearchDebounce = 10 * time.Millisecond
	opts.Transport = sim
	opts.Notifier = &notify.RecordingNotifier{Grant: true}

	m, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(m.Kill)

	require.NoError(t, m.Connect(context.Background(), "self"))
	return m, sim
}

func TestSendMessageReconciledByAck(t *testing.T) {
	sim := transport.NewSimTransport()
	sim.AutoAck = true

	opts := NewOptions()
	opts.Config.StatePath = filepath.Join(t.TempDir(), "recents.json")
	opts.Transport = sim
	m, err := New(opts)
	require.NoError(t, err)
	defer m.Kill()

	var statusChanges []messaging.DeliveryState
	m.OnMessageStatus(func(msg *messaging.Message) {
		statusChanges = append(statusChanges, msg.State)
	})

	require.NoError(t, m.Connect(context.Background(), "self"))

	msg, err := m.SendMessage("c1", messaging.Draft{Content: "hello", Type: messaging.TypeText})
	require.NoError(t, err)

	// The simulated ack reconciles the optimistic write in place.
	assert.Equal(t, 1, m.Store().Count("c1"))
	stored, ok := m.Store().Get(msg.ID)
	require.True(t, ok)
	assert.Equal(t, messaging.StateDelivered, stored.State)
	require.Len(t, statusChanges, 1)
	assert.Equal(t, messaging.StateDelivered, statusChanges[0])
}

func TestSendFailureAndRetry(t *testing.T) {
	m, sim := newTestMessenger(t)
	sim.FailSends = true

	msg, err := m.SendMessage("c1", messaging.Draft{Content: "hello", Type: messaging.TypeText})
	require.NoError(t, err)

	stored, _ := m.Store().Get(msg.ID)
	assert.Equal(t, messaging.StateFailed, stored.State)

	sim.FailSends = false
	require.NoError(t, m.RetryMessage(msg.ID))
	assert.Equal(t, messaging.StateSending, stored.State)
	assert.Equal(t, 1, m.Store().Count("c1"), "retry reuses the original entry")
}

func TestInboundMessageCallbackAndNotification(t *testing.T) {
	sim := transport.NewSimTransport()
	rec := &notify.RecordingNotifier{Grant: true}

	opts := NewOptions()
	opts.Config.StatePath = filepath.Join(t.TempDir(), "recents.json")
	opts.Transport = sim
	opts.Notifier = rec
	m, err := New(opts)
	require.NoError(t, err)
	defer m.Kill()

	require.NoError(t, m.Connect(context.Background(), "self"))
	require.NoError(t, m.EnableNotifications(context.Background()))
	m.SetActiveConversation("active")

	var received []*messaging.Message
	m.OnMessage(func(msg *messaging.Message) { received = append(received, msg) })

	sim.InjectMessage(&transport.Message{
		ID: "in-1", ConversationID: "other", SenderID: "alice",
		Content: "hi there", Type: "text", Timestamp: time.Now(),
	})
	sim.InjectMessage(&transport.Message{
		ID: "in-2", ConversationID: "active", SenderID: "alice",
		Content: "on screen", Type: "text", Timestamp: time.Now(),
	})

	require.Len(t, received, 2)
	assert.Equal(t, 1, m.Store().Unread("other"))
	assert.Equal(t, 0, m.Store().Unread("active"))

	// Only the off-screen conversation raises a notification.
	raised := rec.Notifications()
	require.Len(t, raised, 1)
	assert.Equal(t, "other", raised[0].ConversationID)
	assert.Equal(t, "alice", raised[0].Title)

	// Duplicate delivery is silently dropped everywhere.
	sim.InjectMessage(&transport.Message{
		ID: "in-1", ConversationID: "other", SenderID: "alice",
		Content: "hi there", Type: "text", Timestamp: time.Now(),
	})
	assert.Len(t, received, 2)
	assert.Equal(t, 1, m.Store().Unread("other"))
	assert.Len(t, rec.Notifications(), 1)
}

func TestSwitchingConversationClearsUnread(t *testing.T) {
	m, sim := newTestMessenger(t)

	sim.InjectMessage(&transport.Message{
		ID: "in-1", ConversationID: "c2", SenderID: "alice",
		Content: "hi", Type: "text", Timestamp: time.Now(),
	})
	require.Equal(t, 1, m.Store().Unread("c2"))

	m.SetActiveConversation("c2")
	assert.Equal(t, 0, m.Store().Unread("c2"))
}

func TestGroupSendPermissionCheckedBeforeWrite(t *testing.T) {
	m, _ := newTestMessenger(t)

	g, err := m.Groups().Create("Team", group.VisibilityPrivate, "admin")
	require.NoError(t, err)
	require.NoError(t, g.AddMember("admin", "self"))
	require.NoError(t, g.UpdateSettings("admin", group.Settings{
		MessagingPermissions: group.ScopeAdmins,
		MediaPermissions:     group.ScopeEveryone,
	}))

	// Text is admins-only: the rejected send leaves no ledger entry.
	_, err = m.SendGroupMessage(g.ID, "self", messaging.Draft{Content: "hi", Type: messaging.TypeText})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, m.Store().Count(g.ID))

	// Media stays open to everyone.
	_, err = m.SendGroupMessage(g.ID, "self", messaging.Draft{
		Type:        messaging.TypeImage,
		Attachments: []transport.Attachment{{ID: "f1", Name: "pic.jpg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Store().Count(g.ID))

	// Unknown group denies everything.
	_, err = m.SendGroupMessage("missing", "self", messaging.Draft{Content: "hi", Type: messaging.TypeText})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTypingAndPresenceRouting(t *testing.T) {
	m, sim := newTestMessenger(t)

	var typingEvents int
	m.OnTyping(func(userID, conversationID string, isTyping bool) { typingEvents++ })
	var presenceEvents int
	m.OnPresence(func(userID string, online bool) { presenceEvents++ })

	sim.InjectTyping("alice", "c1", true)
	sim.InjectPresence("alice", true)

	assert.True(t, m.Typing().IsTyping("alice", "c1"))
	assert.True(t, m.Presence().IsOnline("alice"))
	assert.Equal(t, 1, typingEvents)
	assert.Equal(t, 1, presenceEvents)

	sim.InjectTyping("alice", "c1", false)
	assert.False(t, m.Typing().IsTyping("alice", "c1"))
}

func TestThreadQueriesOverLedger(t *testing.T) {
	m, _ := newTestMessenger(t)

	parent, err := m.SendMessage("c1", messaging.Draft{Content: "root", Type: messaging.TypeText})
	require.NoError(t, err)
	reply, err := m.SendMessage("c1", messaging.Draft{Content: "reply", Type: messaging.TypeText, ParentID: parent.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Threads().ReplyCount(parent.ID))
	root, err := m.Threads().RootOf(reply.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, root.ID)
}

func TestSearchDebouncedAndRecorded(t *testing.T) {
	m, _ := newTestMessenger(t)

	_, err := m.SendMessage("c1", messaging.Draft{Content: "quarterly report draft", Type: messaging.TypeText})
	require.NoError(t, err)

	results := make(chan []*messaging.Message, 1)
	m.Search("quarterly", search.NewFilters(), func(msgs []*messaging.Message) {
		results <- msgs
	})

	select {
	case got := <-results:
		require.Len(t, got, 1)
		assert.Equal(t, "quarterly report draft", got[0].Content)
	case <-time.After(time.Second):
		t.Fatal("Debounced search never delivered")
	}

	assert.Equal(t, []string{"quarterly"}, m.Recents().RecentSearches())
}

func TestReactRecordsRecentEmoji(t *testing.T) {
	m, _ := newTestMessenger(t)

	msg, err := m.SendMessage("c1", messaging.Draft{Content: "hello", Type: messaging.TypeText})
	require.NoError(t, err)

	require.NoError(t, m.React(msg.ID, "🎉", "self"))
	assert.True(t, msg.HasReaction("🎉", "self"))
	assert.Equal(t, []string{"🎉"}, m.Recents().RecentEmoji())
}

func TestWaveformFacade(t *testing.T) {
	m, _ := newTestMessenger(t)

	out := m.Waveform([]byte{0x01, 0x02, 0x03}, 16)
	assert.Len(t, out, 16)
}

func TestKillCancelsActiveRecording(t *testing.T) {
	sim := transport.NewSimTransport()
	device := voice.NewSimDevice()
	device.FrameInterval = 2 * time.Millisecond

	opts := NewOptions()
	opts.Config.StatePath = filepath.Join(t.TempDir(), "recents.json")
	opts.Transport = sim
	opts.Device = device
	m, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, m.Connect(context.Background(), "self"))
	require.NoError(t, m.Recorder().Start())
	require.True(t, device.Held())

	m.Kill()
	assert.False(t, device.Held(), "Kill must release the capture device")
	assert.Equal(t, voice.StateIdle, m.Recorder().State())

	// Kill is idempotent.
	m.Kill()
}

func TestKillStopsEventRouting(t *testing.T) {
	m, sim := newTestMessenger(t)

	m.Kill()

	sim.InjectMessage(&transport.Message{
		ID: "late", ConversationID: "c1", SenderID: "alice",
		Content: "too late", Type: "text", Timestamp: time.Now(),
	})
	assert.Equal(t, 0, m.Store().Count("c1"))
}
