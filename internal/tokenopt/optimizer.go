package tokenopt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/Dinesh-raya/news-intel/internal/domain"
)

const (
	// DefaultThreshold is the composed-prompt size above which compression
	// kicks in. Smaller prompts pass through untouched.
	DefaultThreshold = 4000

	compactSnippetLen = 150
	compactHeader     = "ID|TITLE|SOURCE|CONTENT_SNIPPET"
)

// stopWords is the fixed set removed by the opt-in aggressive compression.
// Unsafe for text the backend is asked to reproduce verbatim.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "in": {}, "is": {},
	"of": {}, "on": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
}

// Optimizer compresses prompt payloads before generation calls and accounts
// for savings. Stateless apart from a per-run memoization cache.
type Optimizer struct {
	logger    *slog.Logger
	enabled   bool
	threshold int

	mu    sync.Mutex
	cache map[string]string
}

// New builds an optimizer; threshold <= 0 selects DefaultThreshold.
func New(logger *slog.Logger, enabled bool, threshold int) *Optimizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Optimizer{
		logger:    logger,
		enabled:   enabled,
		threshold: threshold,
		cache:     map[string]string{},
	}
}

// Normalize collapses whitespace runs to single spaces and trims the ends.
// Lossless with respect to meaningful tokens, and idempotent.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// TruncateRunes caps text at limit characters, never splitting a multibyte
// sequence. Byte slicing would corrupt Telugu and other non-ASCII content.
func TruncateRunes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// StripStopWords removes a small fixed stop-word set. Opt-in and lossy: apply
// only to analytical context, never to instructions or quoted text.
func StripStopWords(text string) string {
	fields := strings.Fields(text)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := stopWords[strings.ToLower(f)]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// CompactArticles renders articles as a pipe-delimited table: one header line
// plus one line per article. Column order is fixed.
func CompactArticles(articles []domain.Article) string {
	lines := make([]string, 0, len(articles)+1)
	lines = append(lines, compactHeader)
	for _, a := range articles {
		snippet := a.CleanText()
		if snippet == "" {
			snippet = a.ContentRaw
		}
		snippet = TruncateRunes(snippet, compactSnippetLen)
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		lines = append(lines, strings.Join([]string{a.ID, a.Title, a.Source, snippet}, "|"))
	}
	return strings.Join(lines, "\n")
}

// ToCompactForm shrinks structured data before prompting: article lists become
// the tabular form, anything else falls back to minified JSON.
func ToCompactForm(data any) string {
	if articles, ok := data.([]domain.Article); ok {
		return CompactArticles(articles)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(raw)
}

// EstimateSavings approximates token counts as whitespace-delimited words and
// returns max(0, before-after). Observability only.
func EstimateSavings(before, after string) int {
	saved := len(strings.Fields(before)) - len(strings.Fields(after))
	if saved < 0 {
		return 0
	}
	return saved
}

// CompressPrompt applies the lossless normalization to prompts above the
// threshold and reports savings. Results are memoized for the run; the cache
// only avoids recomputation, never an actual backend call.
func (o *Optimizer) CompressPrompt(prompt string) string {
	if o == nil || !o.enabled || len(prompt) <= o.threshold {
		return prompt
	}

	key := cacheKey(prompt)
	o.mu.Lock()
	if cached, ok := o.cache[key]; ok {
		o.mu.Unlock()
		return cached
	}
	o.mu.Unlock()

	compressed := Normalize(prompt)
	if o.logger != nil {
		o.logger.Info("prompt compressed",
			"original_words", len(strings.Fields(prompt)),
			"compressed_words", len(strings.Fields(compressed)),
			"saved", EstimateSavings(prompt, compressed))
	}

	o.mu.Lock()
	o.cache[key] = compressed
	o.mu.Unlock()
	return compressed
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
