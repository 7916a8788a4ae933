package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lysyi3m/rss-relay/app/state"
)

var selectorBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func makeEntry(guid string, offset time.Duration) Entry {
	return Entry{
		GUID:        guid,
		Title:       "Entry " + guid,
		Link:        "https://example.com/" + guid,
		PublishedAt: selectorBase.Add(offset),
	}
}

func guids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.GUID)
	}
	return out
}

func TestSelectorFirstRunPicksSingleNewest(t *testing.T) {
	entries := []Entry{
		makeEntry("a", 0),
		makeEntry("c", 2*time.Hour),
		makeEntry("b", time.Hour),
	}

	selector := NewSelector()
	selected := selector.Run(entries, nil, false)

	if diff := cmp.Diff([]string{"c"}, guids(selected)); diff != "" {
		t.Errorf("Unexpected selection (-want +got):\n%s", diff)
	}
}

func TestSelectorReturnsNewerEntriesOldestFirst(t *testing.T) {
	entries := []Entry{
		makeEntry("d", 3*time.Hour),
		makeEntry("b", time.Hour),
		makeEntry("c", 2*time.Hour),
		makeEntry("a", 0),
	}
	mark := &state.Watermark{LastGUID: "a", LastPublishedAt: selectorBase, TieGUIDs: []string{"a"}}

	selector := NewSelector()
	selected := selector.Run(entries, mark, false)

	if diff := cmp.Diff([]string{"b", "c", "d"}, guids(selected)); diff != "" {
		t.Errorf("Unexpected selection (-want +got):\n%s", diff)
	}
}

func TestSelectorIdempotentWhenNothingNew(t *testing.T) {
	entries := []Entry{
		makeEntry("a", 0),
		makeEntry("b", time.Hour),
	}
	mark := &state.Watermark{LastGUID: "b", LastPublishedAt: selectorBase.Add(time.Hour), TieGUIDs: []string{"b"}}

	selector := NewSelector()
	selected := selector.Run(entries, mark, false)

	if len(selected) != 0 {
		t.Errorf("Expected no entries selected, got %v", guids(selected))
	}
}

func TestSelectorTiedTimestamps(t *testing.T) {
	entries := []Entry{
		makeEntry("a", 0),
		makeEntry("b", 0),
		makeEntry("c", 0),
	}
	mark := &state.Watermark{LastGUID: "b", LastPublishedAt: selectorBase, TieGUIDs: []string{"a", "b"}}

	selector := NewSelector()
	selected := selector.Run(entries, mark, false)

	if diff := cmp.Diff([]string{"c"}, guids(selected)); diff != "" {
		t.Errorf("Unexpected selection (-want +got):\n%s", diff)
	}
}

func TestSelectorForceLatestIgnoresWatermark(t *testing.T) {
	entries := []Entry{
		makeEntry("a", 0),
		makeEntry("b", time.Hour),
	}
	mark := &state.Watermark{LastGUID: "b", LastPublishedAt: selectorBase.Add(time.Hour), TieGUIDs: []string{"b"}}

	selector := NewSelector()
	selected := selector.Run(entries, mark, true)

	if diff := cmp.Diff([]string{"b"}, guids(selected)); diff != "" {
		t.Errorf("Unexpected selection (-want +got):\n%s", diff)
	}
}

func TestSelectorForceLatestOnEmptyFeed(t *testing.T) {
	selector := NewSelector()
	selected := selector.Run(nil, nil, true)

	if len(selected) != 0 {
		t.Errorf("Expected no entries for empty feed, got %v", guids(selected))
	}
}

func TestSelectorDeterministicOrderForTies(t *testing.T) {
	entries := []Entry{
		makeEntry("b", 0),
		makeEntry("a", 0),
		makeEntry("c", 0),
	}
	mark := &state.Watermark{LastGUID: "old", LastPublishedAt: selectorBase.Add(-time.Hour), TieGUIDs: []string{"old"}}

	selector := NewSelector()
	selected := selector.Run(entries, mark, false)

	if diff := cmp.Diff([]string{"a", "b", "c"}, guids(selected)); diff != "" {
		t.Errorf("Unexpected selection (-want +got):\n%s", diff)
	}
}

func TestSelectorReplaysAfterPartialAdvance(t *testing.T) {
	entries := make([]Entry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, makeEntry(fmt.Sprintf("e%d", i), time.Duration(i)*time.Minute))
	}

	// A previous run stopped after e2, so the watermark sits there.
	mark := &state.Watermark{}
	for i := 0; i <= 2; i++ {
		mark.Advance(entries[i].GUID, entries[i].PublishedAt)
	}

	selector := NewSelector()
	selected := selector.Run(entries, mark, false)

	if diff := cmp.Diff([]string{"e3", "e4"}, guids(selected)); diff != "" {
		t.Errorf("Unexpected selection (-want +got):\n%s", diff)
	}
}
