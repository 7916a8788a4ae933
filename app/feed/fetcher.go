package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Run downloads the feed document for the given configuration.
func (f *Fetcher) Run(ctx context.Context, feedConfig *Config) ([]byte, error) {
	data, _, err := f.get(ctx, feedConfig.URL, feedConfig.Settings.Timeout)
	return data, err
}

// Page downloads an article page linked from an entry. Non-HTML responses
// are rejected, there is nothing to extract from images or binaries.
func (f *Fetcher) Page(ctx context.Context, url string, timeoutSeconds int) ([]byte, error) {
	data, contentType, err := f.get(ctx, url, timeoutSeconds)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string, timeoutSeconds int) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
