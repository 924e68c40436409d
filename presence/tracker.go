package presence

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
}

type defaultTimeProvider struct{}

func (defaultTimeProvider) Now() time.Time { return time.Now() }

// Status is the tracked state of a single user.
type Status struct {
	UserID   string
	Online   bool
	LastSeen time.Time
}

// ChangeCallback is invoked when a user's online state changes.
type ChangeCallback func(userID string, online bool)

// Tracker consumes connection and user_status events to answer presence
// queries.
type Tracker struct {
	mu       sync.RWMutex
	users    map[string]*Status
	onChange ChangeCallback
	tp       TimeProvider
}

// NewTracker creates an empty presence tracker.
func NewTracker() *Tracker {
	return &Tracker{
		users: make(map[string]*Status),
		tp:    defaultTimeProvider{},
	}
}

// SetTimeProvider sets a custom time provider for deterministic testing.
func (t *Tracker) SetTimeProvider(tp TimeProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tp != nil {
		t.tp = tp
	}
}

// OnChange registers a callback for online-state transitions.
func (t *Tracker) OnChange(cb ChangeCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = cb
}

// HandleStatus applies a user_status event.
func (t *Tracker) HandleStatus(userID string, online bool) {
	t.mu.Lock()
	status, ok := t.users[userID]
	if !ok {
		status = &Status{UserID: userID}
		t.users[userID] = status
	}
	changed := status.Online != online || !ok
	status.Online = online
	status.LastSeen = t.tp.Now()
	cb := t.onChange
	t.mu.Unlock()

	if changed {
		logrus.WithFields(logrus.Fields{
			"function": "HandleStatus",
			"user_id":  userID,
			"online":   online,
		}).Debug("Presence updated")
		if cb != nil {
			cb(userID, online)
		}
	}
}

// IsOnline reports whether the user is currently online. Unknown users are
// offline.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.users[userID]
	return ok && status.Online
}

// LastSeen returns the time of the user's last status change. The zero time
// is returned for unknown users.
func (t *Tracker) LastSeen(userID string) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if status, ok := t.users[userID]; ok {
		return status.LastSeen
	}
	return time.Time{}
}

// OnlineUsers returns the IDs of all users currently online.
func (t *Tracker) OnlineUsers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.users))
	for id, status := range t.users {
		if status.Online {
			out = append(out, id)
		}
	}
	return out
}
