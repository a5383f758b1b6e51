package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/logging"
)

func seedSourced(t *testing.T, store *memStore, id string, sourceType domain.SourceType) {
	t.Helper()
	seedCleaned(t, store, id, "A long enough cleaned body of coverage text for sampling in validation.")
	store.mu.Lock()
	a := store.articles[id]
	a.SourceType = sourceType
	store.articles[id] = a
	store.mu.Unlock()
}

func TestValidateStageSkipsWithoutCounterpartData(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedSourced(t, store, "g1", domain.SourceGov)
	// No independent articles at all.

	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		return "CONFLICT: should never be requested", nil
	}}

	stage := NewValidateStage(store, gen, logging.Discard())
	res, conflicts := stage.Run(context.Background())

	if res.Status != domain.StageSkipped {
		t.Fatalf("expected skipped status, got %s", res.Status)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected zero conflicts, got %d", len(conflicts))
	}
	if gen.callCount() != 0 {
		t.Fatal("generator must not be invoked on skip")
	}
}

func TestValidateStageTreatsSentinelAsNoConflicts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedSourced(t, store, "g1", domain.SourceGov)
	seedSourced(t, store, "i1", domain.SourceIndependent)

	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		return "NO_CONFLICT", nil
	}}

	stage := NewValidateStage(store, gen, logging.Discard())
	res, conflicts := stage.Run(context.Background())

	if res.Status != domain.StageSuccess {
		t.Fatalf("unexpected status: %s", res.Status)
	}
	if len(conflicts) != 0 {
		t.Fatalf("sentinel must mean zero conflicts, got %d", len(conflicts))
	}
}

func TestValidateStageReturnsOpaqueConflictReport(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedSourced(t, store, "g1", domain.SourceGov)
	seedSourced(t, store, "i1", domain.SourceIndependent)

	report := "CONFLICT: [Budget] | GOVT: [on track] | INDEP: [delayed] | VERDICT: [tone contrast]"
	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		return report, nil
	}}

	stage := NewValidateStage(store, gen, logging.Discard())
	_, conflicts := stage.Run(context.Background())

	if len(conflicts) != 1 || conflicts[0] != report {
		t.Fatalf("expected the whole response as one conflict, got %v", conflicts)
	}
}

func TestValidateStageGenerationFailureYieldsZeroConflicts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedSourced(t, store, "g1", domain.SourceGov)
	seedSourced(t, store, "i1", domain.SourceIndependent)

	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		return "", fmt.Errorf("backend unavailable")
	}}

	stage := NewValidateStage(store, gen, logging.Discard())
	res, conflicts := stage.Run(context.Background())

	if res.Status != domain.StageSuccess {
		t.Fatalf("generation failure must not fail the stage: %s", res.Status)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected zero conflicts, got %d", len(conflicts))
	}
	if len(res.Failures) != 1 {
		t.Fatalf("failure should be recorded, got %d", len(res.Failures))
	}
}
