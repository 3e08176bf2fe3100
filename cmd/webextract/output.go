package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HimashaHerath/webextract"
	"gopkg.in/yaml.v3"
)

// Display limits of the pretty format.
const (
	prettyLinks       = 5
	prettyValueLength = 200
	prettyDescLength  = 500
)

// Confidence bands of the pretty format.
const (
	highConfidence   = 0.7
	mediumConfidence = 0.3
)

// writeRecord renders rec to w in the given format.
func writeRecord(w io.Writer, rec *webextract.ExtractionRecord, format string) error {
	switch format {
	case "yaml":
		data, err := recordYAML(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "pretty":
		return writePretty(w, rec)
	default:
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
}

// recordYAML converts the JSON form of rec to block-style YAML, keeping the
// field order of the JSON encoding.
func recordYAML(rec *webextract.ExtractionRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func confidenceBand(c float64) string {
	switch {
	case c >= highConfidence:
		return "high"
	case c >= mediumConfidence:
		return "medium"
	}
	return "low"
}

func writePretty(w io.Writer, rec *webextract.ExtractionRecord) error {
	var b strings.Builder

	title := rec.Content.Title
	if title == "" {
		title = "N/A"
	}
	fmt.Fprintf(&b, "URL:         %s\n", rec.URL)
	fmt.Fprintf(&b, "Extracted:   %s\n", rec.ExtractedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Confidence:  %.2f (%s)\n", rec.Confidence, confidenceBand(rec.Confidence))
	fmt.Fprintf(&b, "Title:       %s\n", title)

	if desc := rec.Content.Description; desc != "" {
		fmt.Fprintf(&b, "\nDescription:\n  %s\n", clip(desc, prettyDescLength))
	}

	if rec.StructuredInfo != nil {
		b.WriteString("\nStructured info:\n")
		for _, key := range rec.StructuredInfo.Keys() {
			v, _ := rec.StructuredInfo.Get(key)
			fmt.Fprintf(&b, "  %-16s %s\n", key+":", clip(displayValue(v), prettyValueLength))
		}
	}

	if links := rec.Content.Links; len(links) > 0 {
		b.WriteString("\nLinks:\n")
		for _, l := range links[:min(len(links), prettyLinks)] {
			fmt.Fprintf(&b, "  - %s\n", l)
		}
		if len(links) > prettyLinks {
			fmt.Fprintf(&b, "  ... and %d more\n", len(links)-prettyLinks)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, displayValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, _ := json.Marshal(t)
		return string(data)
	}
	return fmt.Sprint(v)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
