package domain

import "time"

// Sentiment labels come from a fixed small vocabulary.
const (
	SentimentOptimistic  = "Optimistic"
	SentimentPessimistic = "Pessimistic"
	SentimentNeutral     = "Neutral"
	SentimentCritical    = "Critical"
)

// NoSummarySentinel marks a narrative whose synthesis has not yet succeeded.
// A row holding this text is regenerated on the next run; any other text is final.
const NoSummarySentinel = "No summary generated."

// Narrative is one topic's synthesized weekly summary, unique per
// (domain, ISO week, ISO year).
type Narrative struct {
	ID            int64
	Domain        string
	WeekNumber    int
	Year          int
	NarrativeText string
	Sentiment     string
	ActionItems   *string
	CreatedAt     time.Time
}

// Synthesized reports whether the narrative holds real generated text
// rather than the retry sentinel.
func (n Narrative) Synthesized() bool {
	return n.NarrativeText != NoSummarySentinel
}
