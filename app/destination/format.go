package destination

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

const ellipsis = "…"

// plainText strips HTML markup from a string and collapses whitespace.
// Feed summaries routinely arrive as HTML fragments; destinations publish
// plain text.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func runeCount(s string) int {
	return len([]rune(s))
}

// truncate shortens s to at most limit characters. Characters are counted
// as runes of the NFC-normalized form, matching how Mastodon and Lemmy
// count them, so a truncated string never splits a character.
func truncate(s string, limit int) string {
	s = norm.NFC.String(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit < 1 {
		return ""
	}
	if limit == 1 {
		return ellipsis
	}
	return strings.TrimSpace(string(runes[:limit-1])) + ellipsis
}

// composePost renders a post as "title\n\nsummary\n\nlink" within the given
// character limit. The link is never truncated; the summary shrinks first
// and is dropped entirely when too little room remains for it to be useful.
func composePost(post Post, limit int) string {
	const separator = "\n\n"
	const minSummary = 24

	title := plainText(post.Title)
	summary := plainText(post.Summary)
	link := norm.NFC.String(strings.TrimSpace(post.Link))

	if title == "" {
		title, summary = summary, ""
	}
	if title == "" {
		return truncate(link, limit)
	}

	tail := ""
	if link != "" {
		tail = separator + link
	}

	titleBudget := limit - runeCount(tail)
	if titleBudget < 1 {
		return truncate(link, limit)
	}
	title = truncate(title, titleBudget)

	if summary != "" && summary != title {
		summaryBudget := limit - runeCount(title) - runeCount(separator) - runeCount(tail)
		if summaryBudget >= minSummary {
			return title + separator + truncate(summary, summaryBudget) + tail
		}
	}

	return title + tail
}
