package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Text flattens the selection to plain text. Each text node is trimmed,
// empty nodes are dropped, and the rest are joined with sep. Script and
// style bodies are never included.
func Text(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, sep)
}

// NormalizedText is Text joined by spaces with whitespace runs collapsed.
func NormalizedText(sel *goquery.Selection) string {
	return collapse(Text(sel, " "))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// classOrIDContains reports whether the element's class or id contains
// any of the lowercase patterns.
func classOrIDContains(sel *goquery.Selection, patterns []string) bool {
	attrs := strings.ToLower(sel.AttrOr("class", "") + " " + sel.AttrOr("id", ""))
	if strings.TrimSpace(attrs) == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(attrs, p) {
			return true
		}
	}
	return false
}
