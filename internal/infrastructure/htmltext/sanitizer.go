package htmltext

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"

	"github.com/Dinesh-raya/news-intel/internal/ports"
)

// GoquerySanitizer strips markup via goquery and detects language via
// whatlanggo. Both are advisory helpers for the clean stage.
type GoquerySanitizer struct{}

var _ ports.Sanitizer = (*GoquerySanitizer)(nil)

// NewGoquerySanitizer returns a stateless sanitizer.
func NewGoquerySanitizer() *GoquerySanitizer {
	return &GoquerySanitizer{}
}

// StripHTML extracts visible text from raw markup. Plain-text input passes
// through unchanged apart from whitespace.
func (g *GoquerySanitizer) StripHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style").Remove()

	var parts []string
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, sel.Text())
	})
	if len(parts) == 0 {
		parts = append(parts, doc.Text())
	}

	return strings.Join(parts, " "), nil
}

// DetectLanguage returns the ISO 639-1 code of the dominant language, or ""
// when detection is unreliable.
func (g *GoquerySanitizer) DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
