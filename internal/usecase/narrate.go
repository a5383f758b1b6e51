package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
	"github.com/Dinesh-raya/news-intel/internal/tokenopt"
)

const (
	narrativeArticleCap = 20
	narrativeSnippetLen = 100
	analystSystem       = "You are a neutral intelligence analyst."
)

// NarrateStage synthesizes one weekly narrative per domain, keyed by
// (domain, ISO week, ISO year). A row holding the failure sentinel is
// regenerated in place; a synthesized row is never overwritten.
type NarrateStage struct {
	store     ports.ContentStore
	generator ports.Generator
	logger    *slog.Logger
}

// NewNarrateStage wires the narrative stage.
func NewNarrateStage(store ports.ContentStore, generator ports.Generator, logger *slog.Logger) *NarrateStage {
	return &NarrateStage{store: store, generator: generator, logger: logger}
}

// Run synthesizes narratives for the week containing now. A failure for one
// domain never aborts the others.
func (s *NarrateStage) Run(ctx context.Context, now time.Time) domain.StageResult {
	year, week := now.ISOWeek()

	domains, err := s.store.DistinctDomains(ctx)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("list domains: %v", err)}
	}

	result := domain.StageResult{Status: domain.StageSuccess}
	for _, domainLabel := range domains {
		generated, err := s.narrateDomain(ctx, domainLabel, week, year, now)
		if err != nil {
			s.logger.Error("narrative generation failed", "domain", domainLabel, "error", err)
			result.Failures = append(result.Failures, domain.ItemFailure{ID: domainLabel, Error: err.Error()})
			continue
		}
		if generated {
			result.Count++
		}
	}

	s.logger.Info("narrate complete", "generated", result.Count, "failures", len(result.Failures))
	return result
}

func (s *NarrateStage) narrateDomain(ctx context.Context, domainLabel string, week, year int, now time.Time) (bool, error) {
	existing, err := s.store.FindNarrative(ctx, domainLabel, week, year)
	if err != nil {
		return false, fmt.Errorf("lookup narrative: %w", err)
	}
	if existing != nil && existing.Synthesized() {
		// Already synthesized this week; only sentinel rows are retried.
		return false, nil
	}

	articles, err := s.store.RecentByDomain(ctx, domainLabel, narrativeArticleCap)
	if err != nil {
		return false, fmt.Errorf("select articles: %w", err)
	}
	if len(articles) == 0 {
		return false, nil
	}

	response, err := s.generator.Generate(ctx, buildNarrativePrompt(domainLabel, articles), analystSystem)
	if err != nil {
		return false, fmt.Errorf("generate narrative: %w", err)
	}

	summary, sentiment := parseNarrativeResponse(response)
	narrative := domain.Narrative{
		Domain:        domainLabel,
		WeekNumber:    week,
		Year:          year,
		NarrativeText: summary,
		Sentiment:     sentiment,
		CreatedAt:     now.UTC(),
	}
	if err := s.store.UpsertNarrative(ctx, narrative); err != nil {
		return false, fmt.Errorf("upsert narrative: %w", err)
	}
	return true, nil
}

func buildNarrativePrompt(domainLabel string, articles []domain.Article) string {
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		snippet := tokenopt.TruncateRunes(a.CleanText(), narrativeSnippetLen)
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s...", a.SourceType, a.Title, snippet))
	}

	return fmt.Sprintf(`Analyze these articles for the domain '%s'.
1. Write a strict, neutral, factual summary of the dominant narrative (max 3 sentences).
2. Identify the overall sentiment (Optimistic, Pessimistic, Neutral, Critical).

Format:
SUMMARY: <text>
SENTIMENT: <word>

ARTICLES:
%s`, domainLabel, strings.Join(lines, "\n"))
}

// parseNarrativeResponse extracts the two labelled lines tolerantly: labels
// match case-insensitively, the first colon splits label from value, and a
// missing label retains the sentinel default for that field only.
func parseNarrativeResponse(response string) (summary, sentiment string) {
	summary = domain.NoSummarySentinel
	sentiment = domain.SentimentNeutral

	for _, line := range strings.Split(response, "\n") {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "summary":
			summary = value
		case "sentiment":
			sentiment = value
		}
	}

	return summary, sentiment
}
