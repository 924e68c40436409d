// Package presence maintains online/offline status per user from backend
// user_status events.
//
// Per-user state survives a local disconnect: losing the backend session
// only flips the local connection indicator, while the last known status and
// last-seen timestamp of each remote user are retained.
package presence
