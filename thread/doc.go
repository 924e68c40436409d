// Package thread derives parent/reply relationships from the message
// ledger.
//
// The index is a pure view: reply sets, counts, and existence checks are all
// computed from the same filter over the ledger, never maintained
// separately, so they cannot drift from the source of truth.
package thread
