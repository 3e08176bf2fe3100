// Package openai implements webextract.Backend against the OpenAI chat
// completions API.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/HimashaHerath/webextract"
	wehttp "github.com/HimashaHerath/webextract/http"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

// Ensure Backend implements webextract.Backend at compile time.
var _ webextract.Backend = (*Backend)(nil)

// Backend talks to /chat/completions and /models.
type Backend struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	client     *wehttp.Client
}

// Option configures a Backend.
type Option func(*Backend)

// WithBaseURL sets the API address, for OpenAI-compatible servers.
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
	b := &Backend{model: model, apiKey: apiKey, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(b)
	}
	b.client = wehttp.NewClient(b.httpClient, map[string]string{
		"Authorization": "Bearer " + apiKey,
	}, b.logger)
	return b
}

func (b *Backend) Provider() webextract.Provider { return webextract.ProviderOpenAI }

func (b *Backend) Model() string { return b.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	Tools          []any          `json:"tools,omitempty"`
	ToolChoice     any            `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (b *Backend) messages(prompt string, opts webextract.CompletionOptions) []message {
	var msgs []message
	if opts.System != "" {
		msgs = append(msgs, message{Role: "system", Content: opts.System})
	}
	return append(msgs, message{Role: "user", Content: prompt})
}

// Complete sends a single-turn chat request and returns the message text.
// Prefill is not supported by the chat API and is ignored.
func (b *Backend) Complete(ctx context.Context, prompt string, opts webextract.CompletionOptions) (string, error) {
	req := chatRequest{
		Model:       b.model,
		Messages:    b.messages(prompt, opts),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSON {
		req.ResponseFormat = map[string]any{"type": "json_object"}
	}

	var resp chatResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", webextract.Errorf(webextract.EBACKEND, "no choices in openai response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (b *Backend) SupportsToolCalls() bool { return true }

// CompleteTool forces a call of tool and decodes its arguments.
func (b *Backend) CompleteTool(ctx context.Context, prompt string, tool webextract.Tool, opts webextract.CompletionOptions) (map[string]any, error) {
	req := chatRequest{
		Model:       b.model,
		Messages:    b.messages(prompt, opts),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Tools: []any{map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.InputSchema,
			},
		}},
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]any{"name": tool.Name},
		},
	}

	var resp chatResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	for _, choice := range resp.Choices {
		for _, call := range choice.Message.ToolCalls {
			if call.Function.Name != tool.Name {
				continue
			}
			var args map[string]any
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, webextract.Wrap(webextract.EBACKEND, err, "decode tool arguments: %v", err)
			}
			return args, nil
		}
	}
	return nil, webextract.Errorf(webextract.EBACKEND, "openai response has no %s call", tool.Name)
}

// ListModels returns the ids reported by /models.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := b.client.GetJSON(ctx, b.baseURL+"/models", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (b *Backend) ClassifyError(err error) error {
	return wehttp.Classify(err)
}
