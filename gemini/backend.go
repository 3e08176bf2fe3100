// Package gemini implements webextract.Backend using Google Gemini.
package gemini

import (
	"context"
	"strings"

	"github.com/HimashaHerath/webextract"
	wehttp "github.com/HimashaHerath/webextract/http"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured for the gemini provider.
const DefaultModel = "gemini-2.5-flash"

// Ensure Backend implements webextract.Backend at compile time.
var _ webextract.Backend = (*Backend)(nil)

// Backend generates content through the genai client.
type Backend struct {
	client *genai.Client
	model  string
}

// NewBackend creates a new Backend for model.
func NewBackend(client *genai.Client, model string) *Backend {
	if model == "" {
		model = DefaultModel
	}
	return &Backend{client: client, model: model}
}

func (b *Backend) Provider() webextract.Provider { return webextract.ProviderGemini }

func (b *Backend) Model() string { return b.model }

// Complete returns the response text. Prefill is not supported and is
// ignored.
func (b *Backend) Complete(ctx context.Context, prompt string, opts webextract.CompletionOptions) (string, error) {
	config := BuildConfig(opts)
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model, userContent(prompt), config)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", webextract.Errorf(webextract.EBACKEND, "gemini returned nil result")
	}
	return strings.TrimSpace(result.Text()), nil
}

func (b *Backend) SupportsToolCalls() bool { return true }

// CompleteTool declares tool as the only callable function and requires
// the model to call it.
func (b *Backend) CompleteTool(ctx context.Context, prompt string, tool webextract.Tool, opts webextract.CompletionOptions) (map[string]any, error) {
	config := BuildConfig(opts)
	config.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  ConvertSchema(tool.InputSchema),
		}},
	}}
	config.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingConfigModeAny,
			AllowedFunctionNames: []string{tool.Name},
		},
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model, userContent(prompt), config)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, webextract.Errorf(webextract.EBACKEND, "gemini returned nil result")
	}
	for _, call := range result.FunctionCalls() {
		if call != nil && call.Name == tool.Name && call.Args != nil {
			return call.Args, nil
		}
	}
	return nil, webextract.Errorf(webextract.EBACKEND, "gemini response has no %s call", tool.Name)
}

// ListModels returns the first page of available model names without the
// "models/" prefix.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	page, err := b.client.Models.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		if m != nil {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// ClassifyError maps genai errors, which carry the HTTP status and the
// API status name in their text.
func (b *Backend) ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if code := webextract.ErrorCode(err); code != webextract.EINTERNAL {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Error 429"), strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return webextract.Wrap(webextract.ERATELIMIT, err, "gemini rate limit exceeded")
	case strings.Contains(msg, "UNAUTHENTICATED"), strings.Contains(msg, "PERMISSION_DENIED"),
		strings.Contains(msg, "API key not valid"):
		return webextract.Wrap(webextract.EAUTH, err, "gemini authentication failed")
	case strings.Contains(msg, "NOT_FOUND") && strings.Contains(strings.ToLower(msg), "model"):
		return webextract.Wrap(webextract.EUNAVAILABLE, err, "gemini model %q unavailable", b.model)
	}
	return wehttp.Classify(err)
}

// BuildConfig returns the GenerateContentConfig for a call.
func BuildConfig(opts webextract.CompletionOptions) *genai.GenerateContentConfig {
	temp := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.System}},
		}
	}
	return config
}

func userContent(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
}

// ConvertSchema translates a JSON Schema object into a genai.Schema.
// Keywords genai does not model are dropped.
func ConvertSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	if d, ok := s["description"].(string); ok {
		out.Description = d
	}

	typ, _ := s["type"].(string)
	props, hasProps := s["properties"].(map[string]any)
	if typ == "" && hasProps {
		typ = "object"
	}

	switch typ {
	case "object":
		out.Type = genai.TypeObject
		if len(props) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(props))
			for name, p := range props {
				child, _ := p.(map[string]any)
				if child == nil {
					child = map[string]any{}
				}
				out.Properties[name] = ConvertSchema(child)
			}
		}
		out.Required = stringList(s["required"])
	case "array":
		out.Type = genai.TypeArray
		items, _ := s["items"].(map[string]any)
		if items == nil {
			items = map[string]any{"type": "string"}
		}
		out.Items = ConvertSchema(items)
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	out.Enum = stringList(s["enum"])
	return out
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
