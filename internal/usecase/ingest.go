package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
)

// ErrSourcesConfig marks an unreadable source configuration. Unlike item
// failures this aborts the whole run: without sources every later stage would
// silently produce empty output.
var ErrSourcesConfig = errors.New("sources configuration unreadable")

// sourcesFile is the YAML shape listing feed URLs per language.
type sourcesFile struct {
	English []string `yaml:"english"`
	Telugu  []string `yaml:"telugu"`
}

// IngestStage pulls syndication feeds and inserts deduplicated articles.
type IngestStage struct {
	store       ports.ContentStore
	source      ports.FeedSource
	sourcesPath string
	logger      *slog.Logger
}

// NewIngestStage wires the ingestion stage.
func NewIngestStage(store ports.ContentStore, source ports.FeedSource, sourcesPath string, logger *slog.Logger) *IngestStage {
	return &IngestStage{store: store, source: source, sourcesPath: sourcesPath, logger: logger}
}

// Run ingests every configured feed. Per-entry failures skip that entry only;
// a missing or malformed sources file returns a configuration-fatal error.
func (s *IngestStage) Run(ctx context.Context) (domain.StageResult, error) {
	raw, err := os.ReadFile(s.sourcesPath)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: err.Error()},
			fmt.Errorf("%w: read %s: %v", ErrSourcesConfig, s.sourcesPath, err)
	}

	var sources sourcesFile
	if err := yaml.Unmarshal(raw, &sources); err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: err.Error()},
			fmt.Errorf("%w: parse %s: %v", ErrSourcesConfig, s.sourcesPath, err)
	}

	// Fixed order keeps logs and failure lists stable across runs.
	groups := []struct {
		lang string
		urls []string
	}{
		{"en", sources.English},
		{"te", sources.Telugu},
	}

	result := domain.StageResult{Status: domain.StageSuccess}
	for _, group := range groups {
		for _, feedURL := range group.urls {
			count, failures := s.ingestFeed(ctx, feedURL, group.lang)
			result.Count += count
			result.Failures = append(result.Failures, failures...)
		}
	}

	s.logger.Info("ingest complete", "new_articles", result.Count, "failures", len(result.Failures))
	return result, nil
}

func (s *IngestStage) ingestFeed(ctx context.Context, feedURL, language string) (int, []domain.ItemFailure) {
	entries, err := s.source.FetchEntries(ctx, feedURL)
	if err != nil {
		s.logger.Warn("feed fetch failed", "url", feedURL, "error", err)
		return 0, []domain.ItemFailure{{ID: feedURL, Error: err.Error()}}
	}

	var (
		inserted int
		failures []domain.ItemFailure
	)
	for _, entry := range entries {
		article := domain.Article{
			ID:         domain.ArticleID(entry.URL),
			Title:      entry.Title,
			URL:        entry.URL,
			ContentRaw: entry.Content,
			Source:     sourceName(feedURL),
			SourceType: sourceType(feedURL),
			Language:   language,
			PubDate:    entry.Published,
			IngestedAt: time.Now().UTC(),
			IsValid:    true,
		}

		ok, err := s.store.InsertArticle(ctx, article)
		if err != nil {
			s.logger.Error("article insert failed", "url", entry.URL, "error", err)
			failures = append(failures, domain.ItemFailure{ID: article.ID, Error: err.Error()})
			continue
		}
		if ok {
			inserted++
		}
	}

	return inserted, failures
}

func sourceName(feedURL string) string {
	if parsed, err := url.Parse(feedURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return feedURL
}

func sourceType(feedURL string) domain.SourceType {
	if strings.Contains(feedURL, "pib.gov") || strings.Contains(feedURL, "nic.in") {
		return domain.SourceGov
	}
	return domain.SourceIndependent
}
