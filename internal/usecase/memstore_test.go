package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
)

// memStore mimics the Postgres store's contracts in memory for stage tests.
type memStore struct {
	mu         sync.Mutex
	articles   map[string]domain.Article
	order      []string
	narratives []domain.Narrative
	nextNarrID int64
}

var _ ports.ContentStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{articles: map[string]domain.Article{}, nextNarrID: 1}
}

func (m *memStore) InsertArticle(_ context.Context, article domain.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[article.ID]; ok {
		return false, nil
	}
	m.articles[article.ID] = article
	m.order = append(m.order, article.ID)
	return true, nil
}

func (m *memStore) FindUncleaned(_ context.Context) ([]domain.Article, error) {
	return m.filter(func(a domain.Article) bool { return a.ContentClean == nil }), nil
}

func (m *memStore) FindUnclassified(_ context.Context) ([]domain.Article, error) {
	return m.filter(func(a domain.Article) bool {
		return a.Domain == nil && a.ContentClean != nil && a.IsValid
	}), nil
}

func (m *memStore) DistinctDomains(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var domains []string
	for _, id := range m.order {
		a := m.articles[id]
		if a.Domain == nil || !a.IsValid {
			continue
		}
		if _, ok := seen[*a.Domain]; ok {
			continue
		}
		seen[*a.Domain] = struct{}{}
		domains = append(domains, *a.Domain)
	}
	return domains, nil
}

func (m *memStore) RecentByDomain(_ context.Context, domainLabel string, limit int) ([]domain.Article, error) {
	matched := m.filter(func(a domain.Article) bool {
		return a.IsValid && a.Domain != nil && *a.Domain == domainLabel
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].PubDate.After(matched[j].PubDate)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memStore) FindBySourceType(_ context.Context, sourceType domain.SourceType, limit int) ([]domain.Article, error) {
	matched := m.filter(func(a domain.Article) bool {
		return a.IsValid && a.ContentClean != nil && a.SourceType == sourceType
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memStore) ApplyCleanUpdates(_ context.Context, updates []domain.CleanUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		a, ok := m.articles[u.ID]
		if !ok {
			return fmt.Errorf("unknown article %s", u.ID)
		}
		a.ContentClean = u.ContentClean
		a.IsValid = u.IsValid
		a.ValidationError = u.ValidationError
		m.articles[u.ID] = a
	}
	return nil
}

func (m *memStore) ApplyDomainUpdates(_ context.Context, updates []domain.DomainUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		a, ok := m.articles[u.ID]
		if !ok {
			return fmt.Errorf("unknown article %s", u.ID)
		}
		label := u.Domain
		a.Domain = &label
		m.articles[u.ID] = a
	}
	return nil
}

func (m *memStore) FindNarrative(_ context.Context, domainLabel string, week, year int) (*domain.Narrative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.narratives {
		n := m.narratives[i]
		if n.Domain == domainLabel && n.WeekNumber == week && n.Year == year {
			copied := n
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpsertNarrative(_ context.Context, narrative domain.Narrative) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.narratives {
		existing := m.narratives[i]
		if existing.Domain == narrative.Domain &&
			existing.WeekNumber == narrative.WeekNumber &&
			existing.Year == narrative.Year {
			narrative.ID = existing.ID
			m.narratives[i] = narrative
			return nil
		}
	}
	narrative.ID = m.nextNarrID
	m.nextNarrID++
	m.narratives = append(m.narratives, narrative)
	return nil
}

func (m *memStore) RecentNarratives(_ context.Context, limit int) ([]domain.Narrative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Narrative, len(m.narratives))
	copy(out, m.narratives)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) filter(keep func(domain.Article) bool) []domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Article
	for _, id := range m.order {
		if a := m.articles[id]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// fakeGenerator answers generation calls from a supplied function and counts
// invocations.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt, system string) (string, error)
}

var _ ports.Generator = (*fakeGenerator)(nil)

func (f *fakeGenerator) Generate(_ context.Context, prompt, system string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn == nil {
		return "", fmt.Errorf("no generator function configured")
	}
	return f.fn(prompt, system)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// passthroughSanitizer returns content unchanged and never detects a language.
type passthroughSanitizer struct{}

var _ ports.Sanitizer = (*passthroughSanitizer)(nil)

func (passthroughSanitizer) StripHTML(raw string) (string, error) { return raw, nil }
func (passthroughSanitizer) DetectLanguage(string) string         { return "" }

// fakeSource serves fixed entries per feed URL.
type fakeSource struct {
	entries map[string][]ports.FeedEntry
}

var _ ports.FeedSource = (*fakeSource)(nil)

func (f *fakeSource) FetchEntries(_ context.Context, feedURL string) ([]ports.FeedEntry, error) {
	entries, ok := f.entries[feedURL]
	if !ok {
		return nil, fmt.Errorf("unknown feed %s", feedURL)
	}
	return entries, nil
}

// captureReporter records the published hand-off.
type captureReporter struct {
	mu    sync.Mutex
	input *domain.ReportInput
}

var _ ports.Reporter = (*captureReporter)(nil)

func (c *captureReporter) Publish(_ context.Context, input domain.ReportInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = &input
	return nil
}

func strPtr(s string) *string { return &s }
