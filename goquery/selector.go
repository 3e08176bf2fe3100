package goquery

import (
	"strings"
	"unicode/utf8"

	"github.com/HimashaHerath/webextract"
	"github.com/PuerkitoBio/goquery"
)

// Selection thresholds.
const (
	// MinCandidateLength is the length a semantic candidate must exceed.
	MinCandidateLength = 50

	// MinSemanticLength is the semantic result length below which the
	// density fallback runs.
	MinSemanticLength = 100

	// MinFragmentLength is the length a body fragment must exceed to be
	// kept by the last-resort body extraction.
	MinFragmentLength = 20
)

// Name patterns that mark an element as holding content.
var contentPatterns = []string{
	"content",
	"main-content",
	"article-content",
	"post-content",
	"entry-content",
	"story",
	"body-content",
}

// Elements removed before a candidate is flattened to text.
const denyTags = "script, style, noscript, iframe, embed, object, nav, aside, footer, header, advertisement, ads"

// Class and id substrings of elements removed before flattening.
var denyPatterns = []string{
	"advertisement",
	"ads",
	"sidebar",
	"navigation",
	"nav",
	"footer",
	"header",
	"menu",
	"social",
	"share",
	"comment",
}

const bodyDenyTags = "script, style, noscript, iframe, embed, object, nav, aside, footer, header, form"

const bodyTextTags = "p, h1, h2, h3, h4, h5, h6, li, blockquote, article, section"

// SelectMainContent picks the main content block of doc. It returns ""
// when no candidate is long enough, and ETOOLARGE when the selected block
// is longer than maxLength characters.
func SelectMainContent(doc *goquery.Document, maxLength int) (string, error) {
	content := semanticContent(doc)
	if err := checkLength(content, maxLength); err != nil {
		return "", err
	}
	if utf8.RuneCountInString(content) >= MinSemanticLength {
		return content, nil
	}

	content = densityContent(doc)
	if err := checkLength(content, maxLength); err != nil {
		return "", err
	}
	return content, nil
}

func checkLength(content string, maxLength int) error {
	if n := utf8.RuneCountInString(content); maxLength > 0 && n > maxLength {
		return webextract.Errorf(webextract.ETOOLARGE,
			"content exceeds maximum length limit (%d > %d characters)", n, maxLength)
	}
	return nil
}

// semanticContent returns the longest cleaned text of the main/article
// elements and the elements whose class or id names content.
func semanticContent(doc *goquery.Document) string {
	var best string
	bestLen := 0
	consider := func(sel *goquery.Selection) {
		text := cleanText(sel)
		if n := utf8.RuneCountInString(text); n > MinCandidateLength && n > bestLen {
			best, bestLen = text, n
		}
	}

	doc.Find("main, article").Each(func(_ int, sel *goquery.Selection) {
		consider(sel)
	})
	doc.Find("[class], [id]").Each(func(_ int, sel *goquery.Selection) {
		if classOrIDContains(sel, contentPatterns) {
			consider(sel)
		}
	})
	return best
}

// densityContent scores every container and returns the cleaned text of
// the best one, or the filtered body text when no container scores.
func densityContent(doc *goquery.Document) string {
	var best *goquery.Selection
	bestScore := 0.0
	doc.Find("div, section, article, main").Each(func(_ int, sel *goquery.Selection) {
		if score := ScoreContainer(sel); score > bestScore {
			best, bestScore = sel, score
		}
	})
	if best != nil {
		return cleanText(best)
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	return bodyText(body)
}

// ScoreContainer rates how likely sel is to be the main content block.
// Text length, paragraphs and headings raise the score, page chrome lowers
// it, and link-heavy containers are halved. The score is never negative.
func ScoreContainer(sel *goquery.Selection) float64 {
	text := Text(sel, "")
	score := float64(utf8.RuneCountInString(text)) * 0.1
	score += float64(sel.Find("p").Length()) * 10
	score += float64(sel.Find("h1, h2, h3, h4, h5, h6").Length()) * 5
	score -= float64(sel.Find("nav, aside, footer, header").Length()) * 20

	words := max(len(strings.Fields(Text(sel, " "))), 1)
	if float64(sel.Find("a").Length())/float64(words) > 0.1 {
		score *= 0.5
	}
	return max(0, score)
}

// cleanText flattens a copy of sel with non-content subtrees removed.
func cleanText(sel *goquery.Selection) string {
	c := sel.Clone()
	c.Find(denyTags).Remove()
	c.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return classOrIDContains(s, denyPatterns)
	}).Remove()
	return NormalizedText(c)
}

// bodyText joins the substantial text fragments of body.
func bodyText(body *goquery.Selection) string {
	c := body.Clone()
	c.Find(bodyDenyTags).Remove()

	var parts []string
	c.Find(bodyTextTags).Each(func(_ int, s *goquery.Selection) {
		if text := Text(s, ""); utf8.RuneCountInString(text) > MinFragmentLength {
			parts = append(parts, text)
		}
	})
	return collapse(strings.Join(parts, " "))
}
