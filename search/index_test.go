package search

import (
	"testing"
	"time"

	"github.com/CodeWithFin/mnada-web-app-sub000/messaging"
	"github.com/CodeWithFin/mnada-web-app-sub000/transport"
)

type sliceSource struct {
	msgs []*messaging.Message
}

func (s *sliceSource) All() []*messaging.Message { return s.msgs }

func testLedger() *sliceSource {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &sliceSource{msgs: []*messaging.Message{
		{
			ID: "1", Content: "meeting notes from today", SenderID: "alice",
			Type: messaging.TypeText, Timestamp: base,
			Target: messaging.Target{ConversationID: "c1"},
		},
		{
			ID: "2", Content: "let's schedule the meeting", SenderID: "bob",
			Type: messaging.TypeText, Timestamp: base.Add(time.Hour),
			Target: messaging.Target{ConversationID: "c1"},
		},
		{
			ID: "3", Content: "", SenderID: "alice",
			Type: messaging.TypeImage, Timestamp: base.Add(2 * time.Hour),
			Target:      messaging.Target{GroupID: "g1"},
			Attachments: []transport.Attachment{{ID: "f1", Caption: "whiteboard from the meeting"}},
		},
		{
			ID: "4", Content: "unrelated chatter", SenderID: "bob",
			Type: messaging.TypeText, Timestamp: base.Add(3 * time.Hour),
			Target: messaging.Target{ConversationID: "c2"},
		},
	}}
}

func TestSearchEmptyQueryMatchesNothing(t *testing.T) {
	idx := NewIndex(testLedger())
	if got := idx.Search("", NewFilters()); got != nil {
		t.Errorf("Expected nil for empty query, got %v", got)
	}
	if got := idx.Search("   ", NewFilters()); got != nil {
		t.Errorf("Expected nil for whitespace query, got %v", got)
	}
}

func TestSearchRanksPrefixBeforeSubstring(t *testing.T) {
	idx := NewIndex(testLedger())

	got := idx.Search("meeting", NewFilters())
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	// "meeting notes..." is a prefix match; the others are substring matches
	// ordered newest first.
	if got[0].ID != "1" {
		t.Errorf("Expected prefix match first, got %s", got[0].ID)
	}
	if got[1].ID != "3" || got[2].ID != "2" {
		t.Errorf("Expected substring matches newest first, got %s, %s", got[1].ID, got[2].ID)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	idx := NewIndex(testLedger())
	if got := idx.Search("MEETING", NewFilters()); len(got) != 3 {
		t.Errorf("Expected case-insensitive match, got %d results", len(got))
	}
}

func TestSearchMatchesCaptions(t *testing.T) {
	idx := NewIndex(testLedger())
	got := idx.Search("whiteboard", NewFilters())
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("Expected caption match on message 3, got %v", got)
	}
}

func TestSearchSenderFilter(t *testing.T) {
	idx := NewIndex(testLedger())

	f := NewFilters()
	f.SenderID = "bob"
	got := idx.Search("meeting", f)
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("Expected only bob's message, got %v", got)
	}
}

func TestSearchTypeFilter(t *testing.T) {
	idx := NewIndex(testLedger())

	f := NewFilters()
	f.Type = messaging.TypeImage
	got := idx.Search("meeting", f)
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("Expected only the image message, got %v", got)
	}
}

func TestSearchTargetFilter(t *testing.T) {
	idx := NewIndex(testLedger())

	f := NewFilters()
	f.TargetID = "c1"
	got := idx.Search("meeting", f)
	if len(got) != 2 {
		t.Errorf("Expected 2 results in c1, got %d", len(got))
	}
}

func TestSearchTimeFilters(t *testing.T) {
	idx := NewIndex(testLedger())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := NewFilters()
	f.After = base.Add(30 * time.Minute)
	f.Before = base.Add(90 * time.Minute)
	got := idx.Search("meeting", f)
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("Expected only the mid-window message, got %v", got)
	}
}

func TestSearchFiltersCompose(t *testing.T) {
	idx := NewIndex(testLedger())

	f := NewFilters()
	f.SenderID = "alice"
	f.TargetID = "g1"
	got := idx.Search("meeting", f)
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("Expected composed filters to isolate message 3, got %v", got)
	}

	f.SenderID = "bob"
	if got := idx.Search("meeting", f); len(got) != 0 {
		t.Errorf("Expected contradictory filters to match nothing, got %v", got)
	}
}
