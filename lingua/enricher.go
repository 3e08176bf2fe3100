// Package lingua detects the language of extracted content.
package lingua

import (
	"strconv"
	"strings"

	"github.com/HimashaHerath/webextract"
	"github.com/pemistahl/lingua-go"
)

// Ensure Enricher implements webextract.Enricher at compile time.
var _ webextract.Enricher = (*Enricher)(nil)

// DefaultLanguages are the candidates considered by NewEnricher.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
	lingua.Chinese,
	lingua.Japanese,
}

// MinConfidence is the detection confidence below which no language is
// recorded.
const MinConfidence = 0.5

// sampleLength bounds the text handed to the detector.
const sampleLength = 2000

// Enricher sets "language" and "language_confidence" from the main
// content when the page did not declare a language.
//
// Enricher is safe for concurrent use.
type Enricher struct {
	detector lingua.LanguageDetector
}

// NewEnricher builds a detector over the given languages, or
// DefaultLanguages when none are given.
func NewEnricher(languages ...lingua.Language) *Enricher {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithLowAccuracyMode().
		Build()
	return &Enricher{detector: detector}
}

// Enrich detects the language of content.MainContent.
func (e *Enricher) Enrich(_ string, content *webextract.ExtractedContent) error {
	if _, ok := content.Metadata["language"]; ok {
		return nil
	}
	text := sample(content.MainContent)
	if text == "" {
		return nil
	}

	values := e.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 || values[0].Value() < MinConfidence {
		return nil
	}
	best := values[0]
	code := strings.ToLower(best.Language().IsoCode639_1().String())
	if content.AddMetadata("language", code) {
		content.AddMetadata("language_confidence", strconv.FormatFloat(best.Value(), 'f', 2, 64))
	}
	return nil
}

func sample(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > sampleLength {
		return string(r[:sampleLength])
	}
	return s
}
