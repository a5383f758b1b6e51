package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Dinesh-raya/news-intel/internal/ports"
)

// RSSSource pulls entries from syndication feeds.
type RSSSource struct {
	parser *gofeed.Parser
}

var _ ports.FeedSource = (*RSSSource)(nil)

// NewRSSSource wires a gofeed parser with a bounded HTTP client.
func NewRSSSource(client *http.Client) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "news-intel/1.0"
	return &RSSSource{parser: parser}
}

// FetchEntries retrieves and parses one feed into ingestion tuples.
func (s *RSSSource) FetchEntries(ctx context.Context, feedURL string) ([]ports.FeedEntry, error) {
	parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	entries := make([]ports.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" || item.Title == "" {
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content == "" {
			// Some feeds carry only title and link; store what we have.
			content = item.Title
		}

		published := time.Now().UTC()
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		}

		entries = append(entries, ports.FeedEntry{
			URL:       item.Link,
			Title:     item.Title,
			Content:   content,
			Published: published,
		})
	}

	return entries, nil
}
