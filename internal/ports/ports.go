package ports

import (
	"context"
	"time"

	"github.com/Dinesh-raya/news-intel/internal/domain"
)

// ContentStore is the durable record of articles and narratives with
// queryable enrichment-state fields. Stage writes are committed in one
// transaction per batch, not per item.
type ContentStore interface {
	// InsertArticle inserts unless the deterministic ID already exists.
	// Returns true when a new row was created.
	InsertArticle(ctx context.Context, article domain.Article) (bool, error)

	// FindUncleaned returns articles with no cleaned content yet.
	FindUncleaned(ctx context.Context) ([]domain.Article, error)
	// FindUnclassified returns valid, cleaned articles without a domain label.
	FindUnclassified(ctx context.Context) ([]domain.Article, error)
	// DistinctDomains lists the domain labels present among valid articles.
	DistinctDomains(ctx context.Context) ([]string, error)
	// RecentByDomain returns up to limit valid articles of one domain,
	// most recent publish date first.
	RecentByDomain(ctx context.Context, domainLabel string, limit int) ([]domain.Article, error)
	// FindBySourceType samples up to limit valid, cleaned articles of one
	// source category.
	FindBySourceType(ctx context.Context, sourceType domain.SourceType, limit int) ([]domain.Article, error)

	ApplyCleanUpdates(ctx context.Context, updates []domain.CleanUpdate) error
	ApplyDomainUpdates(ctx context.Context, updates []domain.DomainUpdate) error

	// FindNarrative returns the narrative for the key or nil when absent.
	FindNarrative(ctx context.Context, domainLabel string, week, year int) (*domain.Narrative, error)
	// UpsertNarrative inserts or replaces the row keyed by (domain, week, year).
	UpsertNarrative(ctx context.Context, narrative domain.Narrative) error
	RecentNarratives(ctx context.Context, limit int) ([]domain.Narrative, error)
}

// Generator is the single-call contract to the external text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// FeedEntry is one raw item pulled from a syndication feed.
type FeedEntry struct {
	URL       string
	Title     string
	Content   string
	Published time.Time
}

// FeedSource retrieves and parses one syndication feed.
type FeedSource interface {
	FetchEntries(ctx context.Context, feedURL string) ([]FeedEntry, error)
}

// Sanitizer strips markup and cross-checks language of raw article content.
type Sanitizer interface {
	StripHTML(raw string) (string, error)
	// DetectLanguage returns an ISO 639-1 code, or "" when undetermined.
	DetectLanguage(text string) string
}

// Reporter receives the aggregated pipeline output for rendering.
type Reporter interface {
	Publish(ctx context.Context, input domain.ReportInput) error
}
