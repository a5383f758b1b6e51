package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
	"github.com/Dinesh-raya/news-intel/internal/tokenopt"
)

const (
	// minCleanLength guards against degenerate extraction results.
	minCleanLength = 20
	// langCheckMinLength keeps detection off texts too short to be reliable.
	langCheckMinLength = 50

	tooShortError = "content too short"
)

// CleanStage strips markup from raw content and normalizes whitespace.
// Declared language is authoritative; detection mismatches are warnings only.
type CleanStage struct {
	store     ports.ContentStore
	sanitizer ports.Sanitizer
	logger    *slog.Logger
}

// NewCleanStage wires the cleaning stage.
func NewCleanStage(store ports.ContentStore, sanitizer ports.Sanitizer, logger *slog.Logger) *CleanStage {
	return &CleanStage{store: store, sanitizer: sanitizer, logger: logger}
}

// Run cleans every article without cleaned content and commits the batch at
// stage end. One bad article never blocks the rest: failures are marked
// invalid with a reason and the stage continues.
func (s *CleanStage) Run(ctx context.Context) domain.StageResult {
	articles, err := s.store.FindUncleaned(ctx)
	if err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("find uncleaned: %v", err)}
	}

	result := domain.StageResult{Status: domain.StageSuccess}
	updates := make([]domain.CleanUpdate, 0, len(articles))
	for _, article := range articles {
		update := s.cleanOne(article)
		if !update.IsValid {
			result.Failures = append(result.Failures, domain.ItemFailure{ID: article.ID, Error: *update.ValidationError})
		} else {
			result.Count++
		}
		updates = append(updates, update)
	}

	if err := s.store.ApplyCleanUpdates(ctx, updates); err != nil {
		return domain.StageResult{Status: domain.StageError, Reason: fmt.Sprintf("commit clean batch: %v", err)}
	}

	s.logger.Info("clean complete", "cleaned", result.Count, "invalidated", len(result.Failures))
	return result
}

func (s *CleanStage) cleanOne(article domain.Article) domain.CleanUpdate {
	text, err := s.sanitizer.StripHTML(article.ContentRaw)
	if err != nil {
		reason := fmt.Sprintf("cleaning failed: %v", err)
		s.logger.Error("cleaning failed", "id", article.ID, "error", err)
		return domain.CleanUpdate{ID: article.ID, IsValid: false, ValidationError: &reason}
	}

	text = tokenopt.Normalize(text)

	// Character counts, not bytes: Telugu content is multibyte throughout.
	if utf8.RuneCountInString(text) > langCheckMinLength {
		if detected := s.sanitizer.DetectLanguage(text); detected != "" && detected != article.Language {
			s.logger.Warn("language mismatch",
				"id", article.ID, "declared", article.Language, "detected", detected)
		}
	}

	if utf8.RuneCountInString(text) < minCleanLength {
		reason := tooShortError
		return domain.CleanUpdate{ID: article.ID, IsValid: false, ValidationError: &reason}
	}

	return domain.CleanUpdate{ID: article.ID, ContentClean: &text, IsValid: true}
}
