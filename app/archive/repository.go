package archive

import (
	"context"
	"fmt"
	"time"
)

// Publication is one delivered entry on one destination.
type Publication struct {
	RunID       string
	Feed        string
	GUID        string
	Title       string
	Link        string
	Destination string
	PostedAt    time.Time
}

// Record appends a delivered publication to the archive.
func (a *Archive) Record(ctx context.Context, p Publication) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO publications (run_id, feed, guid, title, link, destination, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.RunID, p.Feed, p.GUID, p.Title, p.Link, p.Destination, p.PostedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record publication: %w", err)
	}

	return nil
}

// Recent returns the most recently recorded publications, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Publication, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT run_id, feed, guid, title, link, destination, posted_at
		FROM publications
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query publications: %w", err)
	}
	defer rows.Close()

	var publications []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.RunID, &p.Feed, &p.GUID, &p.Title, &p.Link, &p.Destination, &p.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		publications = append(publications, p)
	}

	return publications, rows.Err()
}

// CountForFeed returns how many publications the archive holds for a feed.
func (a *Archive) CountForFeed(ctx context.Context, feedName string) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM publications WHERE feed = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count publications: %w", err)
	}

	return count, nil
}
