package feed

import (
	"slices"
	"strings"

	"github.com/lysyi3m/rss-relay/app/state"
)

// Selector decides which entries of a feed still need publishing, based on
// the feed's watermark from the previous run.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Run returns the entries to publish, oldest first. Feed documents do not
// guarantee order, so entries are sorted by publish time (ties broken by
// GUID) before the watermark is applied.
//
// A feed without a watermark yields only its single newest entry, so a
// newly added feed never floods destinations with its backlog. When
// forceLatest is set the single newest entry is returned regardless of the
// watermark.
func (s *Selector) Run(entries []Entry, mark *state.Watermark, forceLatest bool) []Entry {
	if len(entries) == 0 {
		return nil
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		if c := a.PublishedAt.Compare(b.PublishedAt); c != 0 {
			return c
		}
		return strings.Compare(a.GUID, b.GUID)
	})

	if forceLatest || mark.IsZero() {
		return sorted[len(sorted)-1:]
	}

	selected := make([]Entry, 0, len(sorted))
	for _, entry := range sorted {
		if !mark.Covers(entry.GUID, entry.PublishedAt) {
			selected = append(selected, entry)
		}
	}

	return selected
}
