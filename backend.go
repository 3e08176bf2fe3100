package webextract

import "context"

// Provider identifies a language model backend.
type Provider string

// Supported providers.
const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// RequiresAPIKey reports whether the provider needs credentials.
func (p Provider) RequiresAPIKey() bool {
	return p != ProviderOllama
}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// CompletionOptions controls a single backend call.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int

	// JSON asks the backend to constrain output to a JSON object when the
	// provider supports it.
	JSON bool

	// System is an optional system instruction.
	System string

	// Prefill seeds the assistant turn on providers that support it.
	// The prefill is included at the start of the returned text.
	Prefill string
}

// Tool describes a function the model is forced to call.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Backend is a language model transport for one provider.
type Backend interface {
	Provider() Provider
	Model() string

	// Complete sends prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// SupportsToolCalls reports whether CompleteTool is available.
	SupportsToolCalls() bool

	// CompleteTool forces a call of tool and returns its decoded arguments.
	CompleteTool(ctx context.Context, prompt string, tool Tool, opts CompletionOptions) (map[string]any, error)

	// ListModels returns the model names the backend can serve.
	ListModels(ctx context.Context) ([]string, error)

	// ClassifyError maps a transport error returned by this backend to an
	// *Error with one of EAUTH, ERATELIMIT, EUNAVAILABLE, ECONNECT,
	// ETIMEOUT, ECANCELED or EBACKEND.
	ClassifyError(err error) error
}

// Generator produces structured results from page content.
type Generator interface {
	// Generate returns a structured result for content. Only typed backend
	// errors are returned; malformed model output resolves to a safe
	// fallback result with ExtractionError set.
	Generate(ctx context.Context, content string, schema *Schema, customPrompt string) (StructuredResult, error)

	// Summarize returns a summary of at most maxLength characters. On any
	// failure it returns a truncated preview of content.
	Summarize(ctx context.Context, content string, maxLength int) string

	// CheckAvailability returns EUNAVAILABLE if the configured model cannot
	// be served.
	CheckAvailability(ctx context.Context) error
}
