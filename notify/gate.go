package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Notification is one user-visible alert.
type Notification struct {
	Title          string
	Body           string
	ConversationID string
}

// Notifier is the platform notification collaborator.
type Notifier interface {
	// RequestPermission asks the user for notification permission.
	RequestPermission(ctx context.Context) (bool, error)

	// Notify raises a notification.
	Notify(n Notification) error
}

// NoopNotifier discards every notification. Used when permission is denied
// or no platform notifier is wired.
type NoopNotifier struct{}

// RequestPermission always reports denied.
func (NoopNotifier) RequestPermission(context.Context) (bool, error) { return false, nil }

// Notify discards the notification.
func (NoopNotifier) Notify(Notification) error { return nil }

// RecordingNotifier captures raised notifications for inspection in tests.
type RecordingNotifier struct {
	mu     sync.Mutex
	Raised []Notification

	// Grant controls the RequestPermission answer.
	Grant bool
}

// RequestPermission reports the configured grant.
func (r *RecordingNotifier) RequestPermission(context.Context) (bool, error) {
	return r.Grant, nil
}

// Notify records the notification.
func (r *RecordingNotifier) Notify(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Raised = append(r.Raised, n)
	return nil
}

// Notifications returns a copy of the raised notifications.
func (r *RecordingNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.Raised...)
}

// Gate decides whether an arriving message raises a notification: only when
// permission was granted and the message's conversation is not the active
// one.
type Gate struct {
	mu         sync.Mutex
	notifier   Notifier
	enabled    bool
	activeConv string
}

// NewGate creates a gate over the given notifier. A nil notifier behaves as
// NoopNotifier.
func NewGate(notifier Notifier) *Gate {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Gate{notifier: notifier}
}

// Enable requests notification permission and arms the gate when granted.
func (g *Gate) Enable(ctx context.Context) error {
	granted, err := g.notifier.RequestPermission(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.enabled = granted
	g.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Enable",
		"granted":  granted,
	}).Info("Notification permission resolved")

	return nil
}

// SetActive records the conversation currently on screen.
func (g *Gate) SetActive(conversationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeConv = conversationID
}

// MessageArrived raises a notification unless the message belongs to the
// active conversation or the gate is disarmed.
func (g *Gate) MessageArrived(conversationID, title, body string) {
	g.mu.Lock()
	enabled := g.enabled
	active := g.activeConv
	notifier := g.notifier
	g.mu.Unlock()

	if !enabled || conversationID == active {
		return
	}
	if err := notifier.Notify(Notification{
		Title:          title,
		Body:           body,
		ConversationID: conversationID,
	}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":        "MessageArrived",
			"conversation_id": conversationID,
			"error":           err.Error(),
		}).Warn("Notification delivery failed")
	}
}
