package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/HimashaHerath/webextract"
)

var _ webextract.Backend = (*LoggingBackend)(nil)

// LoggingBackend wraps a Backend and logs every model call.
type LoggingBackend struct {
	next   webextract.Backend
	logger *slog.Logger
}

// NewLoggingBackend creates a new LoggingBackend.
func NewLoggingBackend(next webextract.Backend, logger *slog.Logger) *LoggingBackend {
	return &LoggingBackend{next: next, logger: logger}
}

func (b *LoggingBackend) Provider() webextract.Provider {
	return b.next.Provider()
}

func (b *LoggingBackend) Model() string {
	return b.next.Model()
}

func (b *LoggingBackend) SupportsToolCalls() bool {
	return b.next.SupportsToolCalls()
}

func (b *LoggingBackend) ClassifyError(err error) error {
	return b.next.ClassifyError(err)
}

// Complete delegates to the wrapped backend and logs the call.
func (b *LoggingBackend) Complete(ctx context.Context, prompt string, opts webextract.CompletionOptions) (text string, err error) {
	defer func(begin time.Time) {
		b.logger.Info("llm complete",
			"provider", b.next.Provider(),
			"model", b.next.Model(),
			"prompt_chars", len([]rune(prompt)),
			"response_chars", len([]rune(text)),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.Complete(ctx, prompt, opts)
}

// CompleteTool delegates to the wrapped backend and logs the call.
func (b *LoggingBackend) CompleteTool(ctx context.Context, prompt string, tool webextract.Tool, opts webextract.CompletionOptions) (args map[string]any, err error) {
	defer func(begin time.Time) {
		b.logger.Info("llm tool call",
			"provider", b.next.Provider(),
			"model", b.next.Model(),
			"tool", tool.Name,
			"fields", len(args),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.CompleteTool(ctx, prompt, tool, opts)
}

// ListModels delegates to the wrapped backend and logs the call.
func (b *LoggingBackend) ListModels(ctx context.Context) (models []string, err error) {
	defer func(begin time.Time) {
		b.logger.Debug("llm list models",
			"provider", b.next.Provider(),
			"count", len(models),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.ListModels(ctx)
}
