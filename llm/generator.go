// Package llm turns page content into a validated StructuredResult by
// driving a webextract.Backend through tool-call and text attempts.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/jsonrepair"
	"github.com/HimashaHerath/webextract/prompt"
	"github.com/HimashaHerath/webextract/validate"
	"github.com/google/uuid"
)

// Tool-call mode settings.
const (
	ToolTemperature = 0.1
	ToolMaxTokens   = 2000
)

// SummaryTemperature is used for summarization calls.
const SummaryTemperature = 0.3

// FallbackPreviewLength is the content preview kept in the safe fallback.
const FallbackPreviewLength = 200

// maxInvalidResults is the number of parsed-but-invalid text results after
// which the first one is returned.
const maxInvalidResults = 2

// SystemPrompt is sent with text-mode completions.
const SystemPrompt = "You are an expert content analyzer. Extract structured information and return valid JSON only."

// Ensure Generator implements webextract.Generator at compile time.
var _ webextract.Generator = (*Generator)(nil)

// Generator implements webextract.Generator over a single Backend.
type Generator struct {
	backend          webextract.Backend
	config           webextract.LLMConfig
	maxContentLength int
	logger           *slog.Logger
}

// NewGenerator creates a Generator. Content longer than maxContentLength
// characters is truncated before prompting. A nil logger discards output.
func NewGenerator(backend webextract.Backend, cfg webextract.LLMConfig, maxContentLength int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = webextract.DefaultRetryAttempts
	}
	if cfg.ToolAttempts <= 0 {
		cfg.ToolAttempts = webextract.DefaultToolAttempts
	}
	return &Generator{
		backend:          backend,
		config:           cfg,
		maxContentLength: maxContentLength,
		logger:           logger,
	}
}

// generation tracks one Generate call.
type generation struct {
	reqID   string
	start   time.Time
	schema  *webextract.Schema
	partial webextract.StructuredResult
	invalid int
}

func (g *generation) keep(r webextract.StructuredResult) {
	if g.partial == nil {
		g.partial = r
	}
}

func (g *generation) elapsed() int64 {
	return time.Since(g.start).Milliseconds()
}

// Generate extracts structured data from content. It returns a typed error
// only for cancellation and backend failures that further attempts cannot
// fix; otherwise it always returns a result, falling back to a partial
// result or a safe fallback.
func (g *Generator) Generate(ctx context.Context, content string, schema *webextract.Schema, customPrompt string) (webextract.StructuredResult, error) {
	gen := &generation{reqID: uuid.New().String(), start: time.Now(), schema: schema}

	g.logger.Info("llm.generate.start",
		"req_id", gen.reqID,
		"provider", g.backend.Provider(),
		"model", g.backend.Model(),
		"content_len", utf8.RuneCountInString(content),
		"custom_schema", schema != nil,
	)

	content = g.truncate(gen, content)
	instructions := g.instructions(schema, customPrompt)

	if g.backend.SupportsToolCalls() {
		result, err := g.toolMode(ctx, gen, content, instructions)
		if result != nil || err != nil {
			return result, err
		}
		g.logger.Warn("llm.generate.tool_fallback", "req_id", gen.reqID, "elapsed_ms", gen.elapsed())
	}

	return g.textMode(ctx, gen, content, instructions)
}

func (g *Generator) truncate(gen *generation, content string) string {
	n := utf8.RuneCountInString(content)
	if g.maxContentLength <= 0 || n <= g.maxContentLength {
		return content
	}
	g.logger.Info("llm.content.truncated",
		"req_id", gen.reqID,
		"from", n,
		"to", g.maxContentLength,
	)
	return prompt.Truncate(content, g.maxContentLength)
}

// instructions picks the extraction instructions. A schema always yields
// the schema prompt; a custom prompt replaces the default instructions
// and is appended to schema instructions.
func (g *Generator) instructions(schema *webextract.Schema, customPrompt string) string {
	if customPrompt == "" {
		customPrompt = g.config.CustomPrompt
	}
	switch {
	case schema != nil && customPrompt != "":
		return prompt.Build(schema) + "\n\nADDITIONAL INSTRUCTIONS:\n" + customPrompt
	case customPrompt != "":
		return customPrompt
	}
	return prompt.Build(schema)
}

// toolMode returns a valid result, a terminal error, or neither when text
// mode should take over.
func (g *Generator) toolMode(ctx context.Context, gen *generation, content, instructions string) (webextract.StructuredResult, error) {
	tool := webextract.Tool{
		Name:        prompt.ToolName,
		Description: prompt.ToolDescription,
		InputSchema: prompt.ToolSchema(gen.schema),
	}
	msg := prompt.Tool(content, instructions)
	opts := webextract.CompletionOptions{Temperature: ToolTemperature, MaxTokens: ToolMaxTokens}

	for attempt := 1; attempt <= g.config.ToolAttempts; attempt++ {
		if err := canceled(ctx); err != nil {
			return nil, err
		}

		var args map[string]any
		err := g.call(ctx, func(ctx context.Context) (err error) {
			args, err = g.backend.CompleteTool(ctx, msg, tool, opts)
			return err
		})
		if err != nil {
			g.logAttempt(gen, "tool", attempt, err)
			if !webextract.Retryable(err) {
				return nil, err
			}
			continue
		}

		valid, fixed := validate.ValidateAndFix(args, gen.schema)
		if valid {
			g.logOK(gen, "tool", attempt)
			return fixed, nil
		}
		g.logInvalid(gen, "tool", attempt, args)
		gen.keep(fixed)
	}
	return nil, nil
}

var errInvalid = errors.New("result failed validation")

var errUnparsable = errors.New("no JSON object in response")

func (g *Generator) textMode(ctx context.Context, gen *generation, content, instructions string) (webextract.StructuredResult, error) {
	msg := prompt.Generation(content, instructions)
	opts := webextract.CompletionOptions{
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
		JSON:        true,
		System:      SystemPrompt,
		Prefill:     "{",
	}

	var lastErr error
	for attempt := 1; attempt <= g.config.RetryAttempts; attempt++ {
		if err := canceled(ctx); err != nil {
			return nil, err
		}

		var text string
		err := g.call(ctx, func(ctx context.Context) (err error) {
			text, err = g.backend.Complete(ctx, msg, opts)
			return err
		})
		if err != nil {
			g.logAttempt(gen, "text", attempt, err)
			if !webextract.Retryable(err) {
				return nil, err
			}
			lastErr = err
			continue
		}
		lastErr = nil

		parsed, strategy := jsonrepair.ParseWithStrategy(text)
		if parsed == nil {
			g.logAttempt(gen, "text", attempt, errUnparsable)
			continue
		}
		g.logger.Debug("llm.generate.parsed", "req_id", gen.reqID, "attempt", attempt, "strategy", strategy)

		valid, fixed := validate.ValidateAndFix(parsed, gen.schema)
		if valid {
			g.logOK(gen, "text", attempt)
			return fixed, nil
		}
		g.logInvalid(gen, "text", attempt, parsed)
		gen.keep(fixed)
		gen.invalid++
		if gen.invalid >= maxInvalidResults {
			break
		}
	}

	if gen.partial != nil {
		g.logger.Warn("llm.generate.fallback", "req_id", gen.reqID, "kind", "partial", "elapsed_ms", gen.elapsed())
		return gen.partial, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	g.logger.Warn("llm.generate.fallback", "req_id", gen.reqID, "kind", "safe", "elapsed_ms", gen.elapsed())
	return SafeFallback(content), nil
}

// call runs fn under the per-call timeout and classifies its error.
func (g *Generator) call(ctx context.Context, fn func(context.Context) error) error {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		return g.backend.ClassifyError(err)
	}
	return nil
}

func (g *Generator) logAttempt(gen *generation, mode string, attempt int, err error) {
	g.logger.Warn("llm.generate.attempt",
		"req_id", gen.reqID,
		"mode", mode,
		"attempt", attempt,
		"code", webextract.ErrorCode(err),
		"error", err,
		"elapsed_ms", gen.elapsed(),
	)
}

// logInvalid logs an attempt whose output failed validation, naming the
// required fields it lacked.
func (g *Generator) logInvalid(gen *generation, mode string, attempt int, value map[string]any) {
	g.logger.Warn("llm.generate.attempt",
		"req_id", gen.reqID,
		"mode", mode,
		"attempt", attempt,
		"error", errInvalid,
		"missing", validate.Missing(value, gen.schema),
		"elapsed_ms", gen.elapsed(),
	)
}

func (g *Generator) logOK(gen *generation, mode string, attempt int) {
	g.logger.Info("llm.generate.ok",
		"req_id", gen.reqID,
		"mode", mode,
		"attempt", attempt,
		"elapsed_ms", gen.elapsed(),
	)
}

// canceled returns a typed error once ctx is done.
func canceled(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return webextract.Wrap(webextract.ETIMEOUT, err, "generation deadline exceeded")
	default:
		return webextract.Wrap(webextract.ECANCELED, err, "generation canceled")
	}
}

// SafeFallback returns the default-shaped result used when no attempt
// produced a usable answer.
func SafeFallback(content string) *webextract.DefaultResult {
	return webextract.NewResultBuilder().
		Set(webextract.FieldSummary, "Content extraction failed. Preview: "+prompt.Truncate(content, FallbackPreviewLength)+"...").
		Set(webextract.FieldTopics, []any{}).
		Set(webextract.FieldCategory, "unknown").
		Set(webextract.FieldSentiment, "neutral").
		Set(webextract.FieldEntities, map[string]any{
			webextract.EntityPeople:        []any{},
			webextract.EntityOrganizations: []any{},
			webextract.EntityLocations:     []any{},
		}).
		Set(webextract.FieldKeyFacts, []any{}).
		Set(webextract.FieldImportantDates, []any{}).
		Set(webextract.FieldStatistics, []any{}).
		Set(webextract.FieldExtractionError, true).
		Default()
}

// Summarize returns a summary of at most maxLength characters. It never
// fails; on a backend error it returns a preview of content.
func (g *Generator) Summarize(ctx context.Context, content string, maxLength int) string {
	var text string
	err := g.call(ctx, func(ctx context.Context) (err error) {
		text, err = g.backend.Complete(ctx, prompt.Summary(content, maxLength), webextract.CompletionOptions{
			Temperature: SummaryTemperature,
			MaxTokens:   max(1, maxLength/3),
		})
		return err
	})
	if err != nil {
		g.logger.Warn("llm.summarize.failed", "code", webextract.ErrorCode(err), "error", err)
		if utf8.RuneCountInString(content) > maxLength {
			return prompt.Truncate(content, maxLength-3) + "..."
		}
		return content
	}
	return shorten(strings.TrimSpace(text), maxLength)
}

// shorten cuts s at the last space before maxLength-3 characters and adds
// an ellipsis when s is longer than maxLength.
func shorten(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	cut := prompt.Truncate(s, maxLength-3)
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// CheckAvailability reports EUNAVAILABLE unless the configured model is
// listed by the backend, either exactly or as a "name:tag" variant.
func (g *Generator) CheckAvailability(ctx context.Context) error {
	var models []string
	err := g.call(ctx, func(ctx context.Context) (err error) {
		models, err = g.backend.ListModels(ctx)
		return err
	})
	if err != nil {
		return err
	}
	want := g.backend.Model()
	for _, m := range models {
		if m == want || strings.HasPrefix(m, want+":") {
			return nil
		}
	}
	return webextract.Errorf(webextract.EUNAVAILABLE, "model %q is not available from %s", want, g.backend.Provider())
}
