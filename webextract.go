// Package webextract turns rendered web pages into validated structured
// records. It selects the main content block of a page, asks a language
// model backend to describe it as JSON, repairs and validates whatever the
// model returns, and scores how far the result can be trusted.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, gemini/).
package webextract

import (
	"context"
	"maps"
	"slices"
	"time"
)

// ExtractedContent is the page content selected from a document tree.
type ExtractedContent struct {
	URL         string            `json:"url"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	MainContent string            `json:"main_content"`
	Links       []string          `json:"links"`
	Metadata    map[string]string `json:"metadata"`

	// ContentHash is the hex xxhash of MainContent.
	ContentHash string `json:"content_hash,omitempty"`
}

// AddMetadata sets key to value unless value is empty or key is already
// present. It reports whether the value was stored.
func (c *ExtractedContent) AddMetadata(key, value string) bool {
	if value == "" {
		return false
	}
	if _, ok := c.Metadata[key]; ok {
		return false
	}
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
	return true
}

// MaxLinks caps the number of links kept on ExtractedContent.
const MaxLinks = 10

// MinContentLength is the shortest main content worth sending to a model.
const MinContentLength = 50

// ContentExtractor parses raw markup and selects its main content.
type ContentExtractor interface {
	// Extract parses html and returns the selected content for pageURL.
	// Returns ETOOLARGE if the selected content exceeds the configured
	// maximum length.
	Extract(html, pageURL string) (*ExtractedContent, error)
}

// Enricher adds supplementary metadata to extracted content.
// Implementations must not overwrite metadata keys that are already set.
type Enricher interface {
	Enrich(html string, content *ExtractedContent) error
}

// ExtractionRecord is the final output of one extraction.
type ExtractionRecord struct {
	URL            string           `json:"url"`
	ExtractedAt    time.Time        `json:"extracted_at"`
	Content        ExtractedContent `json:"content"`
	StructuredInfo StructuredResult `json:"structured_info"`
	Confidence     float64          `json:"confidence"`
}

// Failed reports whether the record describes a pipeline failure.
func (r *ExtractionRecord) Failed() bool {
	return r.StructuredInfo == nil || r.StructuredInfo.ErrorMessage() != ""
}

// Clone returns a copy of the record that shares no mutable state with
// the receiver. StructuredInfo is immutable and is shared.
func (r *ExtractionRecord) Clone() *ExtractionRecord {
	other := *r
	other.Content.Links = slices.Clone(r.Content.Links)
	other.Content.Metadata = maps.Clone(r.Content.Metadata)
	return &other
}

// WithSummary returns a copy of the record whose structured info carries
// the given summary. The receiver is left unchanged.
func (r *ExtractionRecord) WithSummary(summary string) *ExtractionRecord {
	other := r.Clone()
	if r.StructuredInfo != nil {
		other.StructuredInfo = r.StructuredInfo.With("summary", summary)
	}
	return other
}

// Cache stores extraction records by URL.
type Cache interface {
	Get(url string) (*ExtractionRecord, bool)
	Set(url string, record *ExtractionRecord)
	Delete(url string)
	Clear()
	Len() int
}

// Scorer computes a trust score in [0,1] for an extraction.
type Scorer interface {
	Score(content *ExtractedContent, result StructuredResult) float64
}

// DomainLimiter paces requests per domain.
type DomainLimiter interface {
	// Wait blocks until a request to domain is allowed or ctx is done.
	Wait(ctx context.Context, domain string) error
}
