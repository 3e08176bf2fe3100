// Package trafilatura adds document metadata found by go-trafilatura.
package trafilatura

import (
	"net/url"
	"strings"

	"github.com/HimashaHerath/webextract"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Enricher implements webextract.Enricher at compile time.
var _ webextract.Enricher = (*Enricher)(nil)

// Enricher adds author, site name, date, categories, tags and license.
type Enricher struct {
	fallback bool
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithFallback enables the readability and dom-distiller fallbacks inside
// trafilatura.
func WithFallback(enabled bool) Option {
	return func(e *Enricher) {
		e.fallback = enabled
	}
}

// NewEnricher creates a new Enricher.
func NewEnricher(opts ...Option) *Enricher {
	e := &Enricher{fallback: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich runs trafilatura over rawHTML and fills metadata keys that are
// still unset.
func (e *Enricher) Enrich(rawHTML string, content *webextract.ExtractedContent) error {
	if rawHTML == "" {
		return webextract.Errorf(webextract.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback:  e.fallback,
		ExcludeComments: true,
	}
	if u, err := url.Parse(content.URL); err == nil && u.Host != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return webextract.Wrap(webextract.EINTERNAL, err, "trafilatura: %v", err)
	}

	meta := result.Metadata
	content.AddMetadata("author", strings.TrimSpace(meta.Author))
	content.AddMetadata("site_name", strings.TrimSpace(meta.Sitename))
	content.AddMetadata("hostname", meta.Hostname)
	content.AddMetadata("license", meta.License)
	content.AddMetadata("categories", join(meta.Categories))
	content.AddMetadata("tags", join(meta.Tags))
	if !meta.Date.IsZero() {
		content.AddMetadata("date", meta.Date.Format("2006-01-02"))
	}
	return nil
}

func join(values []string) string {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
