// Package typing maintains per-conversation sets of currently-typing users
// with debounced expiry.
//
// Local typing is signaled through the backend channel and auto-expires
// after a quiet window; every renewed keystroke resets the window (debounce,
// not throttle). Remote typing events carry per-entry expiry timestamps so a
// stale entry is logically absent even before its explicit removal.
package typing
