package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
)

const (
	ideaNarrativeCap = 10
	investorSystem   = "You are a venture capitalist."
)

// IdeateStage turns recent narratives into a list of actionable ideas. The
// generated text is passed through unparsed to the report collaborator.
type IdeateStage struct {
	store     ports.ContentStore
	generator ports.Generator
	logger    *slog.Logger
}

// NewIdeateStage wires the idea-generation stage.
func NewIdeateStage(store ports.ContentStore, generator ports.Generator, logger *slog.Logger) *IdeateStage {
	return &IdeateStage{store: store, generator: generator, logger: logger}
}

// Run generates ideas from the most recent narratives. No narratives is not
// an error; the stage skips. A generation failure reports an error status
// with no ideas and never aborts the overall run.
func (s *IdeateStage) Run(ctx context.Context) (domain.StageResult, string) {
	narratives, err := s.store.RecentNarratives(ctx, ideaNarrativeCap)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("list narratives: %v", err)}, ""
	}
	if len(narratives) == 0 {
		s.logger.Info("ideate skipped", "reason", "no narratives")
		return domain.StageResult{Status: domain.StageSkipped, Reason: "no narratives"}, ""
	}

	ideas, err := s.generator.Generate(ctx, buildIdeaPrompt(narratives), investorSystem)
	if err != nil {
		s.logger.Error("idea generation failed", "error", err)
		return domain.StageResult{Status: domain.StageError, Reason: err.Error()}, ""
	}

	s.logger.Info("ideate complete", "narratives", len(narratives))
	return domain.StageResult{Status: domain.StageSuccess, Count: len(narratives)}, ideas
}

func buildIdeaPrompt(narratives []domain.Narrative) string {
	blocks := make([]string, 0, len(narratives))
	for _, n := range narratives {
		blocks = append(blocks, fmt.Sprintf("Domain: %s\nNarrative: %s", n.Domain, n.NarrativeText))
	}

	return fmt.Sprintf(`Based on these narratives, generate 10 specific, actionable business or technical ideas.

Rules:
1. No generic suggestions. Be specific about the opportunity each idea addresses.
2. Every idea must be derived from the provided text.
3. Format:
   1. **<Title>** | *Opportunity:* <Context> | *Idea:* <Solution>

NARRATIVES:
%s`, strings.Join(blocks, "\n"))
}
