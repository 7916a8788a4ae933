package state

import (
	"slices"
	"time"
)

// tieBufferLimit caps how many same-instant identities a watermark keeps.
// Feeds publishing more entries than this at one timestamp may see the
// oldest of them reselected once the buffer rolls over.
const tieBufferLimit = 16

// Watermark records the newest published entry of one feed. TieGUIDs holds
// every identity already published at LastPublishedAt, so that feeds which
// timestamp several entries identically are still deduplicated exactly.
type Watermark struct {
	LastGUID        string    `json:"last_guid"`
	LastPublishedAt time.Time `json:"last_published_at"`
	TieGUIDs        []string  `json:"tie_guids,omitempty"`
}

// IsZero reports whether the watermark carries no position yet.
func (w *Watermark) IsZero() bool {
	return w == nil || (w.LastGUID == "" && w.LastPublishedAt.IsZero())
}

// Covers reports whether an entry with the given identity and publish time
// is at or behind the watermark, i.e. must not be published again.
func (w *Watermark) Covers(guid string, publishedAt time.Time) bool {
	if w.IsZero() {
		return false
	}
	if publishedAt.Before(w.LastPublishedAt) {
		return true
	}
	if publishedAt.After(w.LastPublishedAt) {
		return false
	}
	return guid == w.LastGUID || slices.Contains(w.TieGUIDs, guid)
}

// Advance moves the watermark to the given entry. Advancing to a strictly
// newer publish time resets the tie buffer; advancing at the same instant
// appends to it. Calls with an older publish time are ignored.
func (w *Watermark) Advance(guid string, publishedAt time.Time) {
	if publishedAt.Before(w.LastPublishedAt) {
		return
	}
	if publishedAt.After(w.LastPublishedAt) {
		w.LastGUID = guid
		w.LastPublishedAt = publishedAt
		w.TieGUIDs = []string{guid}
		return
	}
	w.LastGUID = guid
	if !slices.Contains(w.TieGUIDs, guid) {
		w.TieGUIDs = append(w.TieGUIDs, guid)
	}
	if len(w.TieGUIDs) > tieBufferLimit {
		w.TieGUIDs = w.TieGUIDs[len(w.TieGUIDs)-tieBufferLimit:]
	}
}

// Clone returns an independent copy, or nil for a nil receiver.
func (w *Watermark) Clone() *Watermark {
	if w == nil {
		return nil
	}
	clone := *w
	clone.TieGUIDs = slices.Clone(w.TieGUIDs)
	return &clone
}
