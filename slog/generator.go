package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/HimashaHerath/webextract"
)

var _ webextract.Generator = (*LoggingGenerator)(nil)

// LoggingGenerator wraps a Generator with logging.
type LoggingGenerator struct {
	next   webextract.Generator
	logger *slog.Logger
}

// NewLoggingGenerator creates a new LoggingGenerator.
func NewLoggingGenerator(next webextract.Generator, logger *slog.Logger) *LoggingGenerator {
	return &LoggingGenerator{next: next, logger: logger}
}

// Generate delegates to the wrapped generator and logs the outcome.
func (g *LoggingGenerator) Generate(ctx context.Context, content string, schema *webextract.Schema, customPrompt string) (result webextract.StructuredResult, err error) {
	defer func(begin time.Time) {
		fallback := result != nil && result.ExtractionError()
		g.logger.Info("generate",
			"content_chars", len([]rune(content)),
			"schema", schema != nil,
			"custom_prompt", customPrompt != "",
			"fallback", fallback,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.Generate(ctx, content, schema, customPrompt)
}

// Summarize delegates to the wrapped generator and logs the outcome.
func (g *LoggingGenerator) Summarize(ctx context.Context, content string, maxLength int) (summary string) {
	defer func(begin time.Time) {
		g.logger.Info("summarize",
			"max_length", maxLength,
			"chars", len([]rune(summary)),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return g.next.Summarize(ctx, content, maxLength)
}

// CheckAvailability delegates to the wrapped generator and logs the outcome.
func (g *LoggingGenerator) CheckAvailability(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("check model",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.CheckAvailability(ctx)
}
