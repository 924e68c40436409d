// Package notify defines the notification collaborator boundary and the
// gate that decides when a message should raise a notification.
//
// Notifications fire only for messages arriving in conversations that are
// not currently active, and only after permission has been granted.
package notify
