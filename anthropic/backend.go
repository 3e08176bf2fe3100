// Package anthropic implements webextract.Backend against the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/HimashaHerath/webextract"
	wehttp "github.com/HimashaHerath/webextract/http"
)

// DefaultBaseURL is the public Anthropic API.
const DefaultBaseURL = "https://api.anthropic.com"

// APIVersion is sent as the anthropic-version header.
const APIVersion = "2023-06-01"

// DefaultMaxTokens is used when a call does not set MaxTokens, which the
// Messages API requires.
const DefaultMaxTokens = 2000

// Ensure Backend implements webextract.Backend at compile time.
var _ webextract.Backend = (*Backend)(nil)

// Backend talks to /v1/messages and /v1/models.
type Backend struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	client     *wehttp.Client
}

// Option configures a Backend.
type Option func(*Backend)

// WithBaseURL sets the API address.
func WithBaseURL(u string) Option {
	return func(b *Backend) {
		if u != "" {
			b.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) {
		b.httpClient = c
	}
}

// WithLogger sets the logger for request events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

// NewBackend creates a Backend for model authenticated with apiKey.
func NewBackend(model, apiKey string, opts ...Option) *Backend {
	b := &Backend{model: model, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(b)
	}
	b.client = wehttp.NewClient(b.httpClient, map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": APIVersion,
	}, b.logger)
	return b
}

func (b *Backend) Provider() webextract.Provider { return webextract.ProviderAnthropic }

func (b *Backend) Model() string { return b.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Tools       []tool    `json:"tools,omitempty"`
	ToolChoice  any       `json:"tool_choice,omitempty"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type contentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

func (b *Backend) request(prompt string, opts webextract.CompletionOptions) messagesRequest {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return messagesRequest{
		Model:       b.model,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		System:      opts.System,
		Messages:    []message{{Role: "user", Content: prompt}},
	}
}

// Complete sends a message and returns the text blocks of the reply. When
// opts.Prefill is set it seeds the assistant turn and is prepended to the
// returned text.
func (b *Backend) Complete(ctx context.Context, prompt string, opts webextract.CompletionOptions) (string, error) {
	req := b.request(prompt, opts)
	if opts.Prefill != "" {
		req.Messages = append(req.Messages, message{Role: "assistant", Content: opts.Prefill})
	}

	var resp messagesResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/v1/messages", req, &resp); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", webextract.Errorf(webextract.EBACKEND, "anthropic response has no text content")
	}
	return opts.Prefill + strings.TrimSpace(sb.String()), nil
}

func (b *Backend) SupportsToolCalls() bool { return true }

// CompleteTool forces a tool_use of tool and returns its input.
func (b *Backend) CompleteTool(ctx context.Context, prompt string, t webextract.Tool, opts webextract.CompletionOptions) (map[string]any, error) {
	req := b.request(prompt, opts)
	req.Tools = []tool{{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}}
	req.ToolChoice = map[string]any{"type": "tool", "name": t.Name}

	var resp messagesResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/v1/messages", req, &resp); err != nil {
		return nil, err
	}
	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == t.Name && block.Input != nil {
			return block.Input, nil
		}
	}
	return nil, webextract.Errorf(webextract.EBACKEND, "anthropic response has no %s tool_use", t.Name)
}

// ListModels returns the ids reported by /v1/models.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := b.client.GetJSON(ctx, b.baseURL+"/v1/models", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ClassifyError maps transport errors. Anthropic reports overload as
// HTTP 529, which is retryable.
func (b *Backend) ClassifyError(err error) error {
	return wehttp.Classify(err)
}
