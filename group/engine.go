package group

import (
	"errors"
	"sync"
)

// ErrGroupNotFound indicates an unknown group ID.
var ErrGroupNotFound = errors.New("group not found")

// Engine is the registry of groups and the entry point for permission
// queries by group ID.
type Engine struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{groups: make(map[string]*Group)}
}

// Create creates a group and registers it with the engine.
func (e *Engine) Create(name string, visibility Visibility, creatorID string) (*Group, error) {
	g, err := New(name, visibility, creatorID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.groups[g.ID] = g
	e.mu.Unlock()

	return g, nil
}

// Get returns a registered group.
func (e *Engine) Get(groupID string) (*Group, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// CanPerform evaluates a user's permission for an action in a group.
// Unknown groups and non-members uniformly yield false.
func (e *Engine) CanPerform(groupID, userID string, action Action) bool {
	g, err := e.Get(groupID)
	if err != nil {
		return false
	}
	return g.CanPerform(userID, action)
}

// Delete removes a group on behalf of an acting admin.
func (e *Engine) Delete(groupID, actorID string) error {
	g, err := e.Get(groupID)
	if err != nil {
		return err
	}
	if !g.CanPerform(actorID, ActionDeleteGroup) {
		return ErrPermissionDenied
	}

	e.mu.Lock()
	delete(e.groups, groupID)
	e.mu.Unlock()
	return nil
}

// Groups returns all registered groups.
func (e *Engine) Groups() []*Group {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Group, 0, len(e.groups))
	for _, g := range e.groups {
		out = append(out, g)
	}
	return out
}
