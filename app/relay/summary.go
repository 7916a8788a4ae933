package relay

import (
	"time"

	"github.com/lysyi3m/rss-relay/app/state"
)

// Summary describes one complete run.
type Summary struct {
	RunID    string
	Duration time.Duration
	Feeds    []*FeedReport
}

// FeedReport describes what happened to one feed during a run.
type FeedReport struct {
	Feed      string
	Disabled  bool
	Err       error
	Selected  int
	Published int
	// Stopped is set when a destination failure halted this feed before
	// all selected entries were published.
	Stopped bool
	Entries []EntryReport

	watermark *state.Watermark
}

// EntryReport describes the publish attempts for one entry.
type EntryReport struct {
	GUID     string
	Title    string
	Link     string
	Advanced bool
	Outcomes []Outcome
}

// TotalPublished counts entries delivered to every enabled destination
// across all feeds.
func (s *Summary) TotalPublished() int {
	total := 0
	for _, report := range s.Feeds {
		if report != nil {
			total += report.Published
		}
	}
	return total
}

// FailedFeeds counts feeds that either failed outright or were stopped by
// a destination failure.
func (s *Summary) FailedFeeds() int {
	failed := 0
	for _, report := range s.Feeds {
		if report != nil && (report.Err != nil || report.Stopped) {
			failed++
		}
	}
	return failed
}
