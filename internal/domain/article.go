package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceType distinguishes government outlets from independent press.
type SourceType string

const (
	SourceGov         SourceType = "gov"
	SourceIndependent SourceType = "independent"
)

// Article is a single syndicated item progressing through enrichment stages.
type Article struct {
	ID              string
	Title           string
	URL             string
	ContentRaw      string
	ContentClean    *string
	Source          string
	SourceType      SourceType
	Language        string
	Domain          *string
	PubDate         time.Time
	IngestedAt      time.Time
	IsValid         bool
	ValidationError *string
}

// ArticleID derives the deterministic identifier from the canonical URL.
// Re-ingesting the same URL always yields the same identifier.
func ArticleID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// CleanText returns the cleaned content or an empty string when unset.
func (a Article) CleanText() string {
	if a.ContentClean == nil {
		return ""
	}
	return *a.ContentClean
}

// Ready reports whether downstream stages may consume this article.
func (a Article) Ready() bool {
	return a.IsValid && a.ContentClean != nil
}
