package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
	"github.com/Dinesh-raya/news-intel/internal/tokenopt"
)

// domainLabels is the closed set of assignable categories.
var domainLabels = []string{"Politics", "Economy", "Environment", "Technology", "Law & Governance"}

const (
	// defaultDomain is assigned when the backend response names no known label.
	defaultDomain = "Law & Governance"

	classifySnippetLen = 300
	classifierSystem   = "You are a strict classifier."
)

// ClassifyStage assigns one domain label per valid cleaned article.
type ClassifyStage struct {
	store     ports.ContentStore
	generator ports.Generator
	logger    *slog.Logger
}

// NewClassifyStage wires the classification stage.
func NewClassifyStage(store ports.ContentStore, generator ports.Generator, logger *slog.Logger) *ClassifyStage {
	return &ClassifyStage{store: store, generator: generator, logger: logger}
}

// Run classifies every unclassified eligible article and commits the batch.
// A generation failure skips only that article, leaving it for the next run;
// classification failures never mark an article invalid.
func (s *ClassifyStage) Run(ctx context.Context) domain.StageResult {
	articles, err := s.store.FindUnclassified(ctx)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("find unclassified: %v", err)}
	}

	result := domain.StageResult{Status: domain.StageSuccess}
	updates := make([]domain.DomainUpdate, 0, len(articles))
	for _, article := range articles {
		label, err := s.classify(ctx, article.Title, article.CleanText())
		if err != nil {
			s.logger.Error("classification failed", "id", article.ID, "error", err)
			result.Failures = append(result.Failures, domain.ItemFailure{ID: article.ID, Error: err.Error()})
			continue
		}
		updates = append(updates, domain.DomainUpdate{ID: article.ID, Domain: label})
		result.Count++
	}

	if err := s.store.ApplyDomainUpdates(ctx, updates); err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("commit domain batch: %v", err)}
	}

	s.logger.Info("classify complete", "classified", result.Count, "skipped", len(result.Failures))
	return result
}

func (s *ClassifyStage) classify(ctx context.Context, title, text string) (string, error) {
	text = tokenopt.TruncateRunes(text, classifySnippetLen)

	prompt := fmt.Sprintf(
		"Classify this text into exactly one of: %s.\nReturn ONLY the category name.\n\nTitle: %s\nText: %s",
		strings.Join(domainLabels, ", "), title, text)

	response, err := s.generator.Generate(ctx, prompt, classifierSystem)
	if err != nil {
		return "", err
	}

	return matchDomain(response), nil
}

// matchDomain picks the first known label found in the response,
// case-insensitively, falling back to the default category.
func matchDomain(response string) string {
	lowered := strings.ToLower(response)
	for _, label := range domainLabels {
		if strings.Contains(lowered, strings.ToLower(label)) {
			return label
		}
	}
	return defaultDomain
}
