// Package group implements group membership, roles, settings, and the
// permission engine gating group actions.
//
// Permission checks run before any optimistic state mutation: every mutating
// method on a Group verifies the acting user's permission first and returns
// ErrPermissionDenied without touching state when the action is disallowed.
//
// Example:
//
//	g, err := group.New("Flea Market", group.VisibilityPublic, "user-1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if g.CanPerform("user-2", group.ActionSendMessage) {
//	    // ...
//	}
package group
