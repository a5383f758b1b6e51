package domain

import "time"

// Stage statuses reported in the pipeline aggregate result.
const (
	StageSuccess = "success"
	StageSkipped = "skipped"
	StageError   = "error"
)

// StageResult summarizes one stage run. Failures are data, not control flow:
// a stage with item failures still reports success for the items it committed.
type StageResult struct {
	Status   string
	Count    int
	Reason   string
	Failures []ItemFailure
}

// ItemFailure records a single recoverable per-item error.
type ItemFailure struct {
	ID    string
	Error string
}

// CleanUpdate is the committed outcome of cleaning one article. Exactly one of
// ContentClean or ValidationError is set.
type CleanUpdate struct {
	ID              string
	ContentClean    *string
	IsValid         bool
	ValidationError *string
}

// DomainUpdate assigns a classification label to one article.
type DomainUpdate struct {
	ID     string
	Domain string
}

// ReportInput is the hand-off shape for the report collaborator.
type ReportInput struct {
	Narratives  []Narrative
	Conflicts   []string
	Ideas       string
	Stats       map[string]int
	GeneratedAt time.Time
}
