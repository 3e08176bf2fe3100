package goquery

import (
	"net/url"
	"strings"

	"github.com/HimashaHerath/webextract"
	"github.com/PuerkitoBio/goquery"
)

// Ensure Extractor implements webextract.ContentExtractor.
var _ webextract.ContentExtractor = (*Extractor)(nil)

// Extractor turns raw HTML into ExtractedContent using goquery.
type Extractor struct {
	maxContentLength int
}

// NewExtractor creates an Extractor that rejects main content longer than
// maxContentLength characters. Zero disables the limit.
func NewExtractor(maxContentLength int) *Extractor {
	return &Extractor{maxContentLength: maxContentLength}
}

// Extract parses html and fills every ExtractedContent field except the
// content hash.
func (e *Extractor) Extract(html, pageURL string) (*webextract.ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, webextract.Errorf(webextract.EINVALID, "failed to parse HTML: %v", err)
	}

	main, err := SelectMainContent(doc, e.maxContentLength)
	if err != nil {
		return nil, err
	}

	return &webextract.ExtractedContent{
		URL:         pageURL,
		Title:       Title(doc),
		Description: Description(doc),
		MainContent: main,
		Links:       Links(doc, pageURL),
		Metadata:    Metadata(doc),
	}, nil
}

// Title returns the open-graph title, the <title> text, or the first h1.
func Title(doc *goquery.Document) string {
	if v := metaContent(doc, `meta[property="og:title"]`); v != "" {
		return v
	}
	if v := collapse(doc.Find("title").First().Text()); v != "" {
		return v
	}
	return NormalizedText(doc.Find("h1").First())
}

// Description returns the open-graph description or the meta description.
func Description(doc *goquery.Document) string {
	if v := metaContent(doc, `meta[property="og:description"]`); v != "" {
		return v
	}
	return metaContent(doc, `meta[name="description"]`)
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

// Links returns up to MaxLinks absolute links in document order. Fragment
// and javascript: links are skipped and duplicates are dropped.
func Links(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{}
	}

	seen := make(map[string]struct{})
	links := []string{}
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || isScriptLink(href) {
			return true
		}
		resolved := resolveURL(base, href)
		if resolved == "" {
			return true
		}
		if _, ok := seen[resolved]; ok {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
		return len(links) < webextract.MaxLinks
	})
	return links
}

// Metadata collects the page language and viewport hint.
func Metadata(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	if lang := strings.TrimSpace(doc.Find("html").First().AttrOr("lang", "")); lang != "" {
		meta["language"] = lang
	}
	if vp := metaContent(doc, `meta[name="viewport"]`); vp != "" {
		meta["viewport"] = vp
	}
	return meta
}

// resolveURL resolves href against base. Returns empty string if href
// cannot be parsed.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func isScriptLink(href string) bool {
	return strings.HasPrefix(strings.ToLower(href), "javascript:")
}
