// Package readability adds article metadata found by go-readability.
package readability

import (
	"net/url"
	"strings"
	"time"

	"github.com/HimashaHerath/webextract"
	"github.com/go-shiori/go-readability"
)

// Ensure Enricher implements webextract.Enricher at compile time.
var _ webextract.Enricher = (*Enricher)(nil)

// Enricher adds byline, site name, excerpt, image and publish time.
type Enricher struct{}

// NewEnricher creates a new Enricher.
func NewEnricher() *Enricher {
	return &Enricher{}
}

// Enrich parses rawHTML as an article and fills metadata keys that are
// still unset.
func (e *Enricher) Enrich(rawHTML string, content *webextract.ExtractedContent) error {
	if rawHTML == "" {
		return webextract.Errorf(webextract.EINVALID, "empty HTML input")
	}

	pageURL, _ := url.Parse(content.URL)
	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return webextract.Wrap(webextract.EINTERNAL, err, "readability: %v", err)
	}

	content.AddMetadata("byline", strings.TrimSpace(article.Byline))
	content.AddMetadata("site_name", strings.TrimSpace(article.SiteName))
	content.AddMetadata("excerpt", strings.TrimSpace(article.Excerpt))
	content.AddMetadata("image", article.Image)
	content.AddMetadata("language", article.Language)
	if article.PublishedTime != nil {
		content.AddMetadata("published_time", article.PublishedTime.UTC().Format(time.RFC3339))
	}
	return nil
}
