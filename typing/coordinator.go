package typing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultWindow is the quiet period after which typing state auto-expires.
const DefaultWindow = 3 * time.Second

// Signaler sends typing indicators over the backend channel. Implemented by
// *transport.Manager.
type Signaler interface {
	SendTypingIndicator(conversationID string, isTyping bool) error
}

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
}

// defaultTimeProvider uses the standard library clock.
type defaultTimeProvider struct{}

func (defaultTimeProvider) Now() time.Time { return time.Now() }

// Coordinator tracks typing state for the local user and for remote users.
// Every timer it arms is owned by the coordinator and cancelled on StopTyping
// or Close, so no expiry callback can fire after teardown.
type Coordinator struct {
	signaler Signaler
	window   time.Duration
	tp       TimeProvider

	mu sync.Mutex
	// selfTimers holds the auto-expiry timer per conversation the local
	// user is typing in.
	selfTimers map[string]*time.Timer
	// remote maps conversation -> user -> entry expiry time.
	remote map[string]map[string]time.Time
	closed bool
}

// NewCoordinator creates a coordinator with the default expiry window.
func NewCoordinator(signaler Signaler) *Coordinator {
	return NewCoordinatorWithWindow(signaler, DefaultWindow)
}

// NewCoordinatorWithWindow creates a coordinator with a custom expiry
// window. Tests use short windows to exercise expiry without waiting.
func NewCoordinatorWithWindow(signaler Signaler, window time.Duration) *Coordinator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coordinator{
		signaler:   signaler,
		window:     window,
		tp:         defaultTimeProvider{},
		selfTimers: make(map[string]*time.Timer),
		remote:     make(map[string]map[string]time.Time),
	}
}

// SetTimeProvider sets a custom time provider for deterministic testing of
// remote entry expiry.
func (c *Coordinator) SetTimeProvider(tp TimeProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tp != nil {
		c.tp = tp
	}
}

// StartTyping signals typing-true for the conversation and arms the
// auto-expiry timer. A renewed call resets the window.
func (c *Coordinator) StartTyping(conversationID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if timer, ok := c.selfTimers[conversationID]; ok {
		timer.Stop()
	}
	c.selfTimers[conversationID] = time.AfterFunc(c.window, func() {
		c.expireSelf(conversationID)
	})
	c.mu.Unlock()

	if c.signaler != nil {
		if err := c.signaler.SendTypingIndicator(conversationID, true); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":        "StartTyping",
				"conversation_id": conversationID,
				"error":           err.Error(),
			}).Debug("Typing indicator not sent")
		}
	}
}

// StopTyping cancels the expiry timer and signals typing-false immediately.
func (c *Coordinator) StopTyping(conversationID string) {
	c.mu.Lock()
	timer, ok := c.selfTimers[conversationID]
	if ok {
		timer.Stop()
		delete(c.selfTimers, conversationID)
	}
	closed := c.closed
	c.mu.Unlock()

	if ok && !closed && c.signaler != nil {
		_ = c.signaler.SendTypingIndicator(conversationID, false)
	}
}

// expireSelf fires when the quiet window lapses without renewal.
func (c *Coordinator) expireSelf(conversationID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.selfTimers, conversationID)
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":        "expireSelf",
		"conversation_id": conversationID,
	}).Debug("Typing state auto-expired")

	if c.signaler != nil {
		_ = c.signaler.SendTypingIndicator(conversationID, false)
	}
}

// IsSelfTyping reports whether the local user has an unexpired typing entry
// for the conversation.
func (c *Coordinator) IsSelfTyping(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selfTimers[conversationID]
	return ok
}

// HandleRemote applies a remote user_typing event.
func (c *Coordinator) HandleRemote(userID, conversationID string, isTyping bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	users := c.remote[conversationID]
	if isTyping {
		if users == nil {
			users = make(map[string]time.Time)
			c.remote[conversationID] = users
		}
		users[userID] = c.tp.Now().Add(c.window)
		return
	}
	if users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(c.remote, conversationID)
		}
	}
}

// IsTyping reports whether a remote user has an unexpired typing entry in
// the conversation. An entry older than the expiry window is logically
// absent even before explicit removal.
func (c *Coordinator) IsTyping(userID, conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	users, ok := c.remote[conversationID]
	if !ok {
		return false
	}
	expiry, ok := users[userID]
	if !ok {
		return false
	}
	return c.tp.Now().Before(expiry)
}

// TypingUsers returns the remote users with unexpired typing entries in the
// conversation. Expired entries are pruned on the way out.
func (c *Coordinator) TypingUsers(conversationID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := c.remote[conversationID]
	now := c.tp.Now()
	out := make([]string, 0, len(users))
	for userID, expiry := range users {
		if now.Before(expiry) {
			out = append(out, userID)
		} else {
			delete(users, userID)
		}
	}
	if len(users) == 0 {
		delete(c.remote, conversationID)
	}
	return out
}

// Close cancels every pending timer. No expiry callback runs after Close
// returns, and further calls are no-ops.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, timer := range c.selfTimers {
		timer.Stop()
		delete(c.selfTimers, id)
	}
	c.remote = make(map[string]map[string]time.Time)
}
