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

const (
	govSampleCap         = 10
	independentSampleCap = 20
	validateSnippetLen   = 50

	// noConflictSentinel is the literal the backend returns for a clean pass.
	noConflictSentinel = "NO_CONFLICT"

	factCheckerSystem = "You are a strict fact-checker."
)

// ValidateStage surfaces discrepancies between government and independent
// coverage from bounded samples of each category.
type ValidateStage struct {
	store     ports.ContentStore
	generator ports.Generator
	logger    *slog.Logger
}

// NewValidateStage wires the validation stage.
func NewValidateStage(store ports.ContentStore, generator ports.Generator, logger *slog.Logger) *ValidateStage {
	return &ValidateStage{store: store, generator: generator, logger: logger}
}

// Run compares the two samples. With either category empty the comparison is
// meaningless and the stage skips without touching the generation backend.
// A generation failure yields zero conflicts, never a failed run.
func (s *ValidateStage) Run(ctx context.Context) (domain.StageResult, []string) {
	govArticles, err := s.store.FindBySourceType(ctx, domain.SourceGov, govSampleCap)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("sample gov articles: %v", err)}, nil
	}
	indArticles, err := s.store.FindBySourceType(ctx, domain.SourceIndependent, independentSampleCap)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("sample independent articles: %v", err)}, nil
	}

	if len(govArticles) == 0 || len(indArticles) == 0 {
		s.logger.Info("validate skipped", "reason", "insufficient cross-source data")
		return domain.StageResult{Status: domain.StageSkipped, Reason: "insufficient cross-source data"}, nil
	}

	response, err := s.generator.Generate(ctx, buildConflictPrompt(govArticles, indArticles), factCheckerSystem)
	if err != nil {
		s.logger.Error("validation generation failed", "error", err)
		return domain.StageResult{
			Status:   domain.StageSuccess,
			Failures: []domain.ItemFailure{{Error: err.Error()}},
		}, nil
	}

	var conflicts []string
	if !strings.Contains(response, noConflictSentinel) {
		// The whole response is one opaque conflict report; downstream
		// rendering may re-parse the delimited lines.
		conflicts = append(conflicts, response)
	}

	s.logger.Info("validate complete", "conflicts", len(conflicts))
	return domain.StageResult{Status: domain.StageSuccess, Count: len(conflicts)}, conflicts
}

func buildConflictPrompt(govArticles, indArticles []domain.Article) string {
	return fmt.Sprintf(`Compare these GOVERNMENT articles with INDEPENDENT articles.
Identify any specific factual discrepancies or significant tone contrast.

Return ONLY valid conflicts in this format:
CONFLICT: [Topic] | GOVT: [Claim] | INDEP: [Claim] | VERDICT: [Analysis]

If no conflict, return "%s".

GOVERNMENT SOURCES:
%s

INDEPENDENT SOURCES:
%s`, noConflictSentinel, formatSample(govArticles), formatSample(indArticles))
}

func formatSample(articles []domain.Article) string {
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		snippet := tokenopt.TruncateRunes(a.CleanText(), validateSnippetLen)
		lines = append(lines, fmt.Sprintf("- %s: %s...", a.Title, snippet))
	}
	return strings.Join(lines, "\n")
}
