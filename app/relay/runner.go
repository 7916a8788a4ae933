package relay

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-relay/app/archive"
	"github.com/lysyi3m/rss-relay/app/destination"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/state"
)

// Recorder archives delivered publications. A nil Recorder disables
// archiving.
type Recorder interface {
	Record(ctx context.Context, p archive.Publication) error
}

// Runner drives one full pass: fetch every configured feed, select the
// entries past its watermark, publish them oldest first, and advance
// watermarks for entries delivered everywhere.
//
// All fields must be set before Run, except Recorder which is optional.
type Runner struct {
	Configs      []*feed.Config
	Fetcher      *feed.Fetcher
	Parser       *feed.Parser
	Filterer     *feed.Filterer
	Selector     *feed.Selector
	Extractor    *feed.ContentExtractor
	Dispatcher   *Dispatcher
	Destinations []destination.Destination
	Store        *state.Store
	Recorder     Recorder
	WorkerCount  int
	ForceLatest  bool
	Dry          bool
}

// Run processes every feed and returns a summary of what happened. Feeds
// fail independently: a fetch or destination error is captured in the
// summary, never returned. The returned error reports fatal conditions
// only, an unreadable state file or a failed state save.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	start := time.Now()

	slog.Info("Run started", "run_id", runID, "feeds", len(r.Configs), "force_latest", r.ForceLatest, "dry_run", r.Dry)

	prior, err := r.Store.Load()
	if err != nil {
		if !errors.Is(err, state.ErrCorrupt) {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		slog.Error("State file is corrupt, continuing with empty state", "error", err)
	}

	reports := make([]*FeedReport, len(r.Configs))

	workerCount := r.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(r.Configs) {
		workerCount = len(r.Configs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go r.worker(ctx, runID, &wg, jobs, prior, reports)
	}
	for i := range r.Configs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	summary := &Summary{RunID: runID, Feeds: reports, Duration: time.Since(start)}

	if r.Dry {
		slog.Info("Dry run, state not saved", "run_id", runID)
		return summary, nil
	}
	if r.ForceLatest {
		slog.Info("Forced run, state left untouched", "run_id", runID)
		return summary, nil
	}

	if err := r.Store.Save(mergeWatermarks(reports)); err != nil {
		return summary, fmt.Errorf("failed to save state: %w", err)
	}

	return summary, nil
}

func (r *Runner) worker(ctx context.Context, runID string, wg *sync.WaitGroup, jobs <-chan int, prior map[string]*state.Watermark, reports []*FeedReport) {
	defer wg.Done()

	for i := range jobs {
		feedConfig := r.Configs[i]
		reports[i] = r.processFeed(ctx, runID, feedConfig, prior[feedConfig.Name])
	}
}

func (r *Runner) processFeed(ctx context.Context, runID string, feedConfig *feed.Config, prior *state.Watermark) *FeedReport {
	report := &FeedReport{Feed: feedConfig.Name, watermark: prior}

	if !feedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", feedConfig.Name)
		report.Disabled = true
		return report
	}

	data, err := r.Fetcher.Run(ctx, feedConfig)
	if err != nil {
		report.Err = fmt.Errorf("failed to fetch feed: %w", err)
		slog.Error("Feed fetch failed", "feed", feedConfig.Name, "url", feedConfig.URL, "error", err)
		return report
	}

	metadata, entries, err := r.Parser.Run(data)
	if err != nil {
		report.Err = fmt.Errorf("failed to parse feed: %w", err)
		slog.Error("Feed parse failed", "feed", feedConfig.Name, "url", feedConfig.URL, "error", err)
		return report
	}
	slog.Debug("Feed fetched", "feed", feedConfig.Name, "title", metadata.Title, "entries", len(entries))

	publishable := make([]feed.Entry, 0, len(entries))
	for _, entry := range r.Filterer.Run(entries, feedConfig) {
		if entry.IsFiltered {
			slog.Debug("Entry filtered", "feed", feedConfig.Name, "link", entry.Link, "reason", entry.FilterReason)
			continue
		}
		publishable = append(publishable, entry)
	}

	selected := r.Selector.Run(publishable, prior, r.ForceLatest)
	if maxItems := feedConfig.Settings.MaxItems; !r.ForceLatest && maxItems > 0 && len(selected) > maxItems {
		slog.Warn("Capping entries for this run", "feed", feedConfig.Name, "selected", len(selected), "max_items", maxItems)
		selected = selected[:maxItems]
	}
	report.Selected = len(selected)

	if len(selected) == 0 {
		slog.Info("Nothing to publish", "feed", feedConfig.Name)
		return report
	}

	mark := prior.Clone()
	if mark == nil {
		mark = &state.Watermark{}
	}

	for _, entry := range selected {
		post := r.buildPost(ctx, feedConfig, entry)
		outcomes := r.Dispatcher.Run(ctx, post, r.Destinations)
		entryReport := EntryReport{GUID: entry.GUID, Title: entry.Title, Link: entry.Link, Outcomes: outcomes}

		// Deliveries are archived even when another destination failed.
		r.record(ctx, runID, feedConfig.Name, entry, outcomes)

		if anyFailed(outcomes) {
			report.Entries = append(report.Entries, entryReport)
			report.Stopped = true
			slog.Warn("Destination failed, holding watermark",
				"feed", feedConfig.Name,
				"link", entry.Link,
				"remaining", report.Selected-report.Published)
			break
		}

		if !r.ForceLatest {
			mark.Advance(entry.GUID, entry.PublishedAt)
			entryReport.Advanced = true
		}
		report.Published++
		report.Entries = append(report.Entries, entryReport)
	}

	if !r.ForceLatest && !mark.IsZero() {
		report.watermark = mark
	}

	return report
}

func (r *Runner) buildPost(ctx context.Context, feedConfig *feed.Config, entry feed.Entry) destination.Post {
	post := destination.Post{
		Feed:        feedConfig.Name,
		GUID:        entry.GUID,
		Title:       entry.Title,
		Link:        entry.Link,
		Summary:     cmp.Or(entry.Summary, entry.Content),
		PublishedAt: entry.PublishedAt,
	}

	if !feedConfig.Settings.ExtractContent || entry.Link == "" {
		return post
	}

	page, err := r.Fetcher.Page(ctx, entry.Link, feedConfig.Settings.Timeout)
	if err != nil {
		slog.Debug("Article fetch failed, using feed summary", "feed", feedConfig.Name, "link", entry.Link, "error", err)
		return post
	}
	text, err := r.Extractor.Run(page)
	if err != nil {
		slog.Debug("Content extraction failed, using feed summary", "feed", feedConfig.Name, "link", entry.Link, "error", err)
		return post
	}
	post.Summary = text

	return post
}

// record archives delivered outcomes. Archive errors are logged and
// swallowed, archiving never blocks publication or watermark advancement.
func (r *Runner) record(ctx context.Context, runID, feedName string, entry feed.Entry, outcomes []Outcome) {
	if r.Recorder == nil || r.Dry {
		return
	}

	for _, outcome := range outcomes {
		if outcome.Status != StatusDelivered {
			continue
		}
		publication := archive.Publication{
			RunID:       runID,
			Feed:        feedName,
			GUID:        entry.GUID,
			Title:       entry.Title,
			Link:        entry.Link,
			Destination: outcome.Destination,
			PostedAt:    time.Now().UTC(),
		}
		if err := r.Recorder.Record(ctx, publication); err != nil {
			slog.Warn("Failed to archive publication", "feed", feedName, "destination", outcome.Destination, "error", err)
		}
	}
}

// mergeWatermarks assembles the state to persist. Only configured feeds
// appear, so watermarks of removed feeds are pruned on the next save.
func mergeWatermarks(reports []*FeedReport) map[string]*state.Watermark {
	merged := make(map[string]*state.Watermark, len(reports))
	for _, report := range reports {
		if report != nil && report.watermark != nil {
			merged[report.Feed] = report.watermark
		}
	}
	return merged
}
