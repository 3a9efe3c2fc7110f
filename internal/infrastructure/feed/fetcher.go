package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"GlobalPulse/internal/domain"
	"GlobalPulse/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Fetcher retrieves one feed URL over HTTP and parses it into entries.
// Every failure is scoped to the requested URL; the coordinator decides
// how to isolate it from sibling feeds.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets the default timeout.
func NewFetcher(client *http.Client, userAgent string, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{client: client, userAgent: userAgent, logger: logger}
}

// Fetch downloads the document at url and returns its parsed entries.
// The body is read fully before parsing so an interrupted connection never
// feeds truncated XML into the parser mid-stream; if the complete body is
// still malformed, a recovery pass salvages the entries that did arrive.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]domain.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		recovered, recErr := recoverEntries(body)
		if recErr != nil {
			return nil, fmt.Errorf("parse feed: %w", err)
		}
		f.warn("malformed feed partially recovered", "url", url, "entries", len(recovered.Items), "error", err)
		parsed = recovered
	}

	return f.toItems(parsed), nil
}

// toItems maps parsed entries to domain items. Entries without a link are
// discarded.
func (f *Fetcher) toItems(parsed *gofeed.Feed) []domain.FeedItem {
	items := make([]domain.FeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}

		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}

		items = append(items, domain.FeedItem{
			Title:     strings.TrimSpace(entry.Title),
			Link:      link,
			Summary:   StripHTML(summary),
			Published: publishedAt(entry),
		})
	}
	return items
}

func publishedAt(entry *gofeed.Item) *time.Time {
	stamp := entry.PublishedParsed
	if stamp == nil {
		stamp = entry.UpdatedParsed
	}
	if stamp == nil {
		return nil
	}
	utc := stamp.UTC()
	return &utc
}

// recoverEntries truncates a malformed document at its last complete entry
// and reparses. Feeds cut off by a dropped connection usually keep every
// entry before the cut intact.
func recoverEntries(body []byte) (*gofeed.Feed, error) {
	text := string(body)

	closers := []struct {
		entry string
		tail  string
	}{
		{entry: "</item>", tail: "</channel></rss>"},
		{entry: "</entry>", tail: "</feed>"},
	}

	for _, closer := range closers {
		idx := strings.LastIndex(text, closer.entry)
		if idx < 0 {
			continue
		}

		candidate := text[:idx+len(closer.entry)] + closer.tail
		parsed, err := gofeed.NewParser().ParseString(candidate)
		if err != nil || len(parsed.Items) == 0 {
			continue
		}
		return parsed, nil
	}

	return nil, fmt.Errorf("no recoverable entries")
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
