package search

import (
	"sort"
	"strings"
	"time"

	"github.com/CodeWithFin/mnada-web-app-sub000/messaging"
)

// TypeAny is the Filters.Type value meaning "all message types".
const TypeAny = messaging.MessageType(255)

// Filters narrow the candidate set before text matching. Zero values mean
// "all"; set fields compose by logical AND.
type Filters struct {
	// After and Before bound the message timestamp. Zero times are open.
	After  time.Time
	Before time.Time

	// Type restricts to one message type. TypeAny (the default from
	// NewFilters) matches all.
	Type messaging.MessageType

	// SenderID restricts to one sender. Empty matches all.
	SenderID string

	// TargetID restricts to one conversation or group. Empty matches all.
	TargetID string
}

// NewFilters returns the all-pass filter set.
func NewFilters() Filters {
	return Filters{Type: TypeAny}
}

// matches reports whether a message survives the filter set.
func (f Filters) matches(m *messaging.Message) bool {
	if !f.After.IsZero() && m.Timestamp.Before(f.After) {
		return false
	}
	if !f.Before.IsZero() && m.Timestamp.After(f.Before) {
		return false
	}
	if f.Type != TypeAny && m.Type != f.Type {
		return false
	}
	if f.SenderID != "" && m.SenderID != f.SenderID {
		return false
	}
	if f.TargetID != "" && m.Target.ID() != f.TargetID {
		return false
	}
	return true
}

// Source is the slice of the message ledger the index scans. Implemented by
// *messaging.Store.
type Source interface {
	All() []*messaging.Message
}

// Index answers search queries over a message source without duplicating
// its state.
type Index struct {
	source Source
}

// NewIndex creates an index over the given source.
func NewIndex(source Source) *Index {
	return &Index{source: source}
}

// matchKind classifies how a message matched the query.
type matchKind uint8

const (
	matchNone matchKind = iota
	matchSubstring
	matchPrefix
)

// classify finds the strongest match of the query against the message's
// searchable text: content plus image caption text.
func classify(m *messaging.Message, query string) matchKind {
	best := matchNone
	texts := []string{m.Content}
	for _, att := range m.Attachments {
		if att.Caption != "" {
			texts = append(texts, att.Caption)
		}
	}

	for _, text := range texts {
		lower := strings.ToLower(text)
		if strings.HasPrefix(lower, query) {
			return matchPrefix
		}
		if strings.Contains(lower, query) {
			best = matchSubstring
		}
	}
	return best
}

// Search returns messages matching the query under the filters, ranked
// exact-prefix before substring, then newest timestamp first. An empty
// query matches nothing.
func (i *Index) Search(query string, filters Filters) []*messaging.Message {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	type ranked struct {
		msg  *messaging.Message
		kind matchKind
	}
	var results []ranked

	for _, msg := range i.source.All() {
		if !filters.matches(msg) {
			continue
		}
		if kind := classify(msg, query); kind != matchNone {
			results = append(results, ranked{msg: msg, kind: kind})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].kind != results[b].kind {
			return results[a].kind > results[b].kind
		}
		return results[a].msg.Timestamp.After(results[b].msg.Timestamp)
	})

	out := make([]*messaging.Message, len(results))
	for idx, r := range results {
		out[idx] = r.msg
	}
	return out
}
