// Package search implements the full-text filter over the message ledger.
//
// Queries are case-insensitive substring matches over message content and
// image caption text, applied after the composable filters (date range,
// type, sender, conversation) narrow the candidate set. Results rank
// exact-prefix matches ahead of substring matches, newest first within each
// band. A debouncer suppresses recomputation while the user is still
// typing the query.
package search
