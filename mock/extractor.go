package mock

import "github.com/HimashaHerath/webextract"

var _ webextract.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of webextract.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html, pageURL string) (*webextract.ExtractedContent, error)
}

func (e *ContentExtractor) Extract(html, pageURL string) (*webextract.ExtractedContent, error) {
	return e.ExtractFn(html, pageURL)
}

var _ webextract.Enricher = (*Enricher)(nil)

// Enricher is a mock implementation of webextract.Enricher.
type Enricher struct {
	EnrichFn func(html string, content *webextract.ExtractedContent) error
}

func (e *Enricher) Enrich(html string, content *webextract.ExtractedContent) error {
	return e.EnrichFn(html, content)
}

var _ webextract.Scorer = (*Scorer)(nil)

// Scorer is a mock implementation of webextract.Scorer.
type Scorer struct {
	ScoreFn func(content *webextract.ExtractedContent, result webextract.StructuredResult) float64
}

func (s *Scorer) Score(content *webextract.ExtractedContent, result webextract.StructuredResult) float64 {
	return s.ScoreFn(content, result)
}
