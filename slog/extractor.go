package slog

import (
	"log/slog"
	"time"

	"github.com/HimashaHerath/webextract"
)

var _ webextract.ContentExtractor = (*LoggingContentExtractor)(nil)

// LoggingContentExtractor wraps a ContentExtractor with debug logging.
type LoggingContentExtractor struct {
	next   webextract.ContentExtractor
	logger *slog.Logger
}

// NewLoggingContentExtractor creates a new LoggingContentExtractor.
func NewLoggingContentExtractor(next webextract.ContentExtractor, logger *slog.Logger) *LoggingContentExtractor {
	return &LoggingContentExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs what was selected.
func (e *LoggingContentExtractor) Extract(html, pageURL string) (content *webextract.ExtractedContent, err error) {
	defer func(begin time.Time) {
		var chars, links int
		if content != nil {
			chars = len([]rune(content.MainContent))
			links = len(content.Links)
		}
		e.logger.Debug("select content",
			"url", pageURL,
			"html_bytes", len(html),
			"chars", chars,
			"links", links,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(html, pageURL)
}
