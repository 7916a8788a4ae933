package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry, ok := p.normalizeItem(item)
		if !ok {
			slog.Warn("Skipping entry without identity or timestamp", "feed", parsed.Title, "title", item.Title, "link", item.Link)
			continue
		}
		entries = append(entries, entry)
	}

	return metadata, entries, nil
}

// normalizeItem converts a gofeed item into an Entry. Items without a
// usable identity (GUID or link) or without any parseable timestamp
// cannot participate in watermark tracking and are rejected.
func (p *Parser) normalizeItem(item *gofeed.Item) (Entry, bool) {
	entry := Entry{
		GUID:    cmp.Or(item.GUID, item.Link),
		Title:   item.Title,
		Link:    item.Link,
		Summary: item.Description,
		Content: item.Content,
	}

	if entry.GUID == "" {
		return Entry{}, false
	}

	switch {
	case item.PublishedParsed != nil:
		entry.PublishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		entry.PublishedAt = *item.UpdatedParsed
	default:
		return Entry{}, false
	}

	if item.Categories != nil {
		entry.Categories = item.Categories
	}

	return entry, true
}
