package mock

import (
	"context"

	"github.com/HimashaHerath/webextract"
)

var _ webextract.Backend = (*Backend)(nil)

// Backend is a mock implementation of webextract.Backend.
type Backend struct {
	ProviderFn          func() webextract.Provider
	ModelFn             func() string
	CompleteFn          func(ctx context.Context, prompt string, opts webextract.CompletionOptions) (string, error)
	SupportsToolCallsFn func() bool
	CompleteToolFn      func(ctx context.Context, prompt string, tool webextract.Tool, opts webextract.CompletionOptions) (map[string]any, error)
	ListModelsFn        func(ctx context.Context) ([]string, error)
	ClassifyErrorFn     func(err error) error
}

func (b *Backend) Provider() webextract.Provider {
	return b.ProviderFn()
}

func (b *Backend) Model() string {
	return b.ModelFn()
}

func (b *Backend) Complete(ctx context.Context, prompt string, opts webextract.CompletionOptions) (string, error) {
	return b.CompleteFn(ctx, prompt, opts)
}

func (b *Backend) SupportsToolCalls() bool {
	return b.SupportsToolCallsFn()
}

func (b *Backend) CompleteTool(ctx context.Context, prompt string, tool webextract.Tool, opts webextract.CompletionOptions) (map[string]any, error) {
	return b.CompleteToolFn(ctx, prompt, tool, opts)
}

func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	return b.ListModelsFn(ctx)
}

func (b *Backend) ClassifyError(err error) error {
	return b.ClassifyErrorFn(err)
}

var _ webextract.Generator = (*Generator)(nil)

// Generator is a mock implementation of webextract.Generator.
type Generator struct {
	GenerateFn          func(ctx context.Context, content string, schema *webextract.Schema, customPrompt string) (webextract.StructuredResult, error)
	SummarizeFn         func(ctx context.Context, content string, maxLength int) string
	CheckAvailabilityFn func(ctx context.Context) error
}

func (g *Generator) Generate(ctx context.Context, content string, schema *webextract.Schema, customPrompt string) (webextract.StructuredResult, error) {
	return g.GenerateFn(ctx, content, schema, customPrompt)
}

func (g *Generator) Summarize(ctx context.Context, content string, maxLength int) string {
	return g.SummarizeFn(ctx, content, maxLength)
}

func (g *Generator) CheckAvailability(ctx context.Context) error {
	return g.CheckAvailabilityFn(ctx)
}
