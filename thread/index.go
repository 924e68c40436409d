package thread

import (
	"errors"
	"fmt"

	"github.com/CodeWithFin/mnada-web-app-sub000/messaging"
)

// ErrParentCycle indicates a cyclic parent chain, which is a data-integrity
// violation. The walk reports it instead of looping.
var ErrParentCycle = errors.New("cyclic parent reference")

// ErrUnknownMessage indicates a root walk starting from an ID not present in
// the ledger.
var ErrUnknownMessage = errors.New("message not in ledger")

// Source is the slice of the message ledger the index reads. Implemented by
// *messaging.Store.
type Source interface {
	Get(messageID string) (*messaging.Message, bool)
	All() []*messaging.Message
}

// Index answers thread queries over a message source.
type Index struct {
	source Source
}

// NewIndex creates an index over the given source.
func NewIndex(source Source) *Index {
	return &Index{source: source}
}

// RepliesOf returns every message whose parent ID equals the given ID, in
// ledger order.
func (i *Index) RepliesOf(messageID string) []*messaging.Message {
	var out []*messaging.Message
	for _, msg := range i.source.All() {
		if msg.ParentID == messageID {
			out = append(out, msg)
		}
	}
	return out
}

// ReplyCount returns the number of direct replies to a message.
func (i *Index) ReplyCount(messageID string) int {
	return len(i.RepliesOf(messageID))
}

// HasReplies reports whether a message has at least one direct reply.
func (i *Index) HasReplies(messageID string) bool {
	for _, msg := range i.source.All() {
		if msg.ParentID == messageID {
			return true
		}
	}
	return false
}

// RootOf walks parent links from the given message until none remain and
// returns the thread root. A visited set guards the walk: a message citing
// itself or a cycle of parents yields ErrParentCycle rather than an endless
// loop. A parent ID pointing outside the ledger ends the walk at the last
// known message.
func (i *Index) RootOf(messageID string) (*messaging.Message, error) {
	msg, ok := i.source.Get(messageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, messageID)
	}

	visited := map[string]struct{}{msg.ID: {}}
	for msg.ParentID != "" {
		if _, seen := visited[msg.ParentID]; seen {
			return nil, fmt.Errorf("%w: via %s", ErrParentCycle, msg.ID)
		}
		parent, ok := i.source.Get(msg.ParentID)
		if !ok {
			// Parent was deleted; the chain ends here.
			return msg, nil
		}
		visited[parent.ID] = struct{}{}
		msg = parent
	}
	return msg, nil
}
