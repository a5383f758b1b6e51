package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
)

const reportNarrativeCap = 20

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Store       ports.ContentStore
	Generator   ports.Generator
	Source      ports.FeedSource
	Sanitizer   ports.Sanitizer
	Reporter    ports.Reporter
	SourcesPath string
	Logger      *slog.Logger
}

// PipelineResult is the aggregate outcome of one run: per-stage status and
// counts are always reported, even when stages were partial or skipped.
type PipelineResult struct {
	Stages    map[string]domain.StageResult
	Conflicts []string
	Ideas     string
}

// Pipeline runs the enrichment stages in a fixed order and hands the
// aggregated output to the report collaborator. Only configuration-fatal
// errors escape Run; stage failures stay inside their stage's result.
type Pipeline struct {
	ingest   *IngestStage
	clean    *CleanStage
	classify *ClassifyStage
	narrate  *NarrateStage
	validate *ValidateStage
	ideate   *IdeateStage

	store    ports.ContentStore
	reporter ports.Reporter
	logger   *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		ingest:   NewIngestStage(deps.Store, deps.Source, deps.SourcesPath, logger.With("stage", "ingest")),
		clean:    NewCleanStage(deps.Store, deps.Sanitizer, logger.With("stage", "clean")),
		classify: NewClassifyStage(deps.Store, deps.Generator, logger.With("stage", "classify")),
		narrate:  NewNarrateStage(deps.Store, deps.Generator, logger.With("stage", "narrate")),
		validate: NewValidateStage(deps.Store, deps.Generator, logger.With("stage", "validate")),
		ideate:   NewIdeateStage(deps.Store, deps.Generator, logger.With("stage", "ideate")),
		store:    deps.Store,
		reporter: deps.Reporter,
		logger:   logger.With("component", "pipeline"),
	}
}

// Run executes one full pipeline pass for the week containing now.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (PipelineResult, error) {
	p.logger.Info("pipeline start")
	result := PipelineResult{Stages: map[string]domain.StageResult{}}

	ingestRes, err := p.ingest.Run(ctx)
	result.Stages["ingest"] = ingestRes
	if err != nil {
		// Pre-flight configuration failure: no partial result would be
		// meaningful without sources.
		return result, fmt.Errorf("ingest: %w", err)
	}

	result.Stages["clean"] = p.clean.Run(ctx)
	result.Stages["classify"] = p.classify.Run(ctx)
	result.Stages["narrate"] = p.narrate.Run(ctx, now)

	validateRes, conflicts := p.validate.Run(ctx)
	result.Stages["validate"] = validateRes
	result.Conflicts = conflicts

	ideateRes, ideas := p.ideate.Run(ctx)
	result.Stages["ideate"] = ideateRes
	result.Ideas = ideas

	p.publish(ctx, result, now)

	p.logger.Info("pipeline complete",
		"ingested", result.Stages["ingest"].Count,
		"cleaned", result.Stages["clean"].Count,
		"classified", result.Stages["classify"].Count,
		"narratives", result.Stages["narrate"].Count)
	return result, nil
}

func (p *Pipeline) publish(ctx context.Context, result PipelineResult, now time.Time) {
	if p.reporter == nil {
		return
	}

	narratives, err := p.store.RecentNarratives(ctx, reportNarrativeCap)
	if err != nil {
		p.logger.Error("load narratives for report", "error", err)
	}

	stats := map[string]int{
		"ingested":   result.Stages["ingest"].Count,
		"cleaned":    result.Stages["clean"].Count,
		"classified": result.Stages["classify"].Count,
		"narratives": result.Stages["narrate"].Count,
	}

	input := domain.ReportInput{
		Narratives:  narratives,
		Conflicts:   result.Conflicts,
		Ideas:       result.Ideas,
		Stats:       stats,
		GeneratedAt: now.UTC(),
	}
	if err := p.reporter.Publish(ctx, input); err != nil {
		p.logger.Error("report publish failed", "error", err)
	}
}
