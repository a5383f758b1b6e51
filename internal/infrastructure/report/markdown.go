package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
)

// MarkdownReporter renders the pipeline hand-off into a dated markdown file.
type MarkdownReporter struct {
	dir    string
	logger *slog.Logger
}

var _ ports.Reporter = (*MarkdownReporter)(nil)

// NewMarkdownReporter writes reports under dir, creating it when needed.
func NewMarkdownReporter(dir string, logger *slog.Logger) *MarkdownReporter {
	return &MarkdownReporter{dir: dir, logger: logger}
}

// Publish renders narratives, conflicts, ideas and stage stats to disk.
func (r *MarkdownReporter) Publish(ctx context.Context, input domain.ReportInput) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("report_%s.md", input.GeneratedAt.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(render(input)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("report written", "path", path, "narratives", len(input.Narratives))
	}
	return nil
}

func render(input domain.ReportInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly Discourse Report: %s\n\n", input.GeneratedAt.Format("2006-01-02"))

	b.WriteString("## Narratives\n\n")
	if len(input.Narratives) == 0 {
		b.WriteString("_No narratives available._\n\n")
	}
	for _, n := range input.Narratives {
		fmt.Fprintf(&b, "### %s (week %d, %d)\n\n%s\n\nSentiment: %s\n\n",
			n.Domain, n.WeekNumber, n.Year, n.NarrativeText, n.Sentiment)
	}

	b.WriteString("## Cross-source conflicts\n\n")
	if len(input.Conflicts) == 0 {
		b.WriteString("_None detected._\n\n")
	}
	for _, c := range input.Conflicts {
		fmt.Fprintf(&b, "%s\n\n", c)
	}

	b.WriteString("## Ideas\n\n")
	if strings.TrimSpace(input.Ideas) == "" {
		b.WriteString("_No ideas generated._\n\n")
	} else {
		fmt.Fprintf(&b, "%s\n\n", input.Ideas)
	}

	b.WriteString("## Pipeline stats\n\n")
	for _, key := range []string{"ingested", "cleaned", "classified", "narratives"} {
		if v, ok := input.Stats[key]; ok {
			fmt.Fprintf(&b, "- %s: %d\n", key, v)
		}
	}

	return b.String()
}
