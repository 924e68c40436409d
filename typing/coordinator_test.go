package typing

import (
	"sync"
	"testing"
	"time"
)

// mockTimeProvider allows manual time control in tests.
type mockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{now: time.Now()}
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// recordingSignaler captures typing indicator sends.
type recordingSignaler struct {
	mu    sync.Mutex
	sends []bool
}

func (r *recordingSignaler) SendTypingIndicator(conversationID string, isTyping bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, isTyping)
	return nil
}

func (r *recordingSignaler) recorded() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.sends))
	copy(out, r.sends)
	return out
}

func TestStartTypingSignalsTrue(t *testing.T) {
	sig := &recordingSignaler{}
	c := NewCoordinator(sig)
	defer c.Close()

	c.StartTyping("c1")

	if !c.IsSelfTyping("c1") {
		t.Error("Expected self typing after StartTyping")
	}
	sends := sig.recorded()
	if len(sends) != 1 || !sends[0] {
		t.Errorf("Expected one typing-true send, got %v", sends)
	}
}

func TestStopTypingSignalsFalse(t *testing.T) {
	sig := &recordingSignaler{}
	c := NewCoordinator(sig)
	defer c.Close()

	c.StartTyping("c1")
	c.StopTyping("c1")

	if c.IsSelfTyping("c1") {
		t.Error("Expected self typing cleared after StopTyping")
	}
	sends := sig.recorded()
	if len(sends) != 2 || sends[1] {
		t.Errorf("Expected typing-false send, got %v", sends)
	}
}

func TestStopTypingWithoutStart(t *testing.T) {
	sig := &recordingSignaler{}
	c := NewCoordinator(sig)
	defer c.Close()

	c.StopTyping("c1")

	if len(sig.recorded()) != 0 {
		t.Error("StopTyping without StartTyping should not signal")
	}
}

func TestSelfTypingAutoExpires(t *testing.T) {
	sig := &recordingSignaler{}
	c := NewCoordinatorWithWindow(sig, 30*time.Millisecond)
	defer c.Close()

	c.StartTyping("c1")

	deadline := time.Now().Add(time.Second)
	for c.IsSelfTyping("c1") {
		if time.Now().After(deadline) {
			t.Fatal("Typing state did not auto-expire")
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline = time.Now().Add(time.Second)
	for {
		sends := sig.recorded()
		if len(sends) == 2 && !sends[1] {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected expiry typing-false send, got %v", sends)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRenewalResetsWindow(t *testing.T) {
	sig := &recordingSignaler{}
	c := NewCoordinatorWithWindow(sig, 60*time.Millisecond)
	defer c.Close()

	c.StartTyping("c1")
	time.Sleep(40 * time.Millisecond)
	c.StartTyping("c1")
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first call but only 40ms after renewal.
	if !c.IsSelfTyping("c1") {
		t.Error("Renewal should reset the expiry window")
	}
}

func TestHandleRemoteTyping(t *testing.T) {
	tp := newMockTimeProvider()
	c := NewCoordinator(nil)
	c.SetTimeProvider(tp)
	defer c.Close()

	c.HandleRemote("user-2", "c1", true)

	if !c.IsTyping("user-2", "c1") {
		t.Error("Expected user-2 typing in c1")
	}
	if c.IsTyping("user-2", "c2") {
		t.Error("Typing state must be scoped to the conversation")
	}
	if c.IsTyping("user-3", "c1") {
		t.Error("Unknown user should not be typing")
	}

	c.HandleRemote("user-2", "c1", false)
	if c.IsTyping("user-2", "c1") {
		t.Error("Explicit typing-false should clear the entry")
	}
}

func TestRemoteTypingExpires(t *testing.T) {
	tp := newMockTimeProvider()
	c := NewCoordinator(nil)
	c.SetTimeProvider(tp)
	defer c.Close()

	c.HandleRemote("user-2", "c1", true)
	tp.Advance(DefaultWindow + time.Second)

	if c.IsTyping("user-2", "c1") {
		t.Error("Remote entry past the window should read as not typing")
	}
	if users := c.TypingUsers("c1"); len(users) != 0 {
		t.Errorf("Expected no typing users after expiry, got %v", users)
	}
}

func TestTypingUsersListsUnexpired(t *testing.T) {
	tp := newMockTimeProvider()
	c := NewCoordinator(nil)
	c.SetTimeProvider(tp)
	defer c.Close()

	c.HandleRemote("user-2", "c1", true)
	tp.Advance(2 * time.Second)
	c.HandleRemote("user-3", "c1", true)
	tp.Advance(2 * time.Second)

	// user-2 is 4s old (expired), user-3 is 2s old (live).
	users := c.TypingUsers("c1")
	if len(users) != 1 || users[0] != "user-3" {
		t.Errorf("Expected only user-3 typing, got %v", users)
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	sig := &recordingSignaler{}
	c := NewCoordinatorWithWindow(sig, 20*time.Millisecond)

	c.StartTyping("c1")
	c.Close()

	time.Sleep(60 * time.Millisecond)

	// Only the initial typing-true; the expiry callback must not fire.
	if sends := sig.recorded(); len(sends) != 1 {
		t.Errorf("Expected no sends after Close, got %v", sends)
	}

	c.StartTyping("c2")
	if c.IsSelfTyping("c2") {
		t.Error("StartTyping after Close should be a no-op")
	}
}
