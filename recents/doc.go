// Package recents persists the small pieces of local state the messaging
// surfaces reuse across sessions: recently used reaction emoji and recent
// search terms.
//
// State lives in one explicit store object with mediated reads and writes;
// there is no ambient shared list. Lists are most-recent-first,
// deduplicated, capped at fixed lengths, loaded at startup and rewritten
// atomically on each change.
package recents
