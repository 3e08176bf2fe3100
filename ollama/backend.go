// Package ollama implements webextract.Backend against a local Ollama
// server.
package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/HimashaHerath/webextract"
	wehttp "github.com/HimashaHerath/webextract/http"
)

// DefaultBaseURL is the address of a default Ollama install.
const DefaultBaseURL = webextract.DefaultOllamaURL

// Ensure Backend implements webextract.Backend at compile time.
var _ webextract.Backend = (*Backend)(nil)

// Backend talks to the Ollama generate and tags endpoints.
type Backend struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	client     *wehttp.Client
}

// Option configures a Backend.
type Option func(*Backend)

// WithBaseURL sets the server address.
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

// NewBackend creates a Backend for model.
func NewBackend(model string, opts ...Option) *Backend {
	b := &Backend{model: model, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(b)
	}
	b.client = wehttp.NewClient(b.httpClient, nil, b.logger)
	return b
}

func (b *Backend) Provider() webextract.Provider { return webextract.ProviderOllama }

func (b *Backend) Model() string { return b.model }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format,omitempty"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Complete calls /api/generate. Prefill is not supported by Ollama and is
// ignored.
func (b *Backend) Complete(ctx context.Context, prompt string, opts webextract.CompletionOptions) (string, error) {
	req := generateRequest{
		Model:  b.model,
		Prompt: prompt,
		System: opts.System,
		Options: generateOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}
	if opts.JSON {
		req.Format = "json"
	}

	var resp generateResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/api/generate", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", webextract.Errorf(webextract.EBACKEND, "ollama: %s", resp.Error)
	}
	return strings.TrimSpace(resp.Response), nil
}

// SupportsToolCalls returns false; extraction uses text mode only.
func (b *Backend) SupportsToolCalls() bool { return false }

// CompleteTool is not supported.
func (b *Backend) CompleteTool(context.Context, string, webextract.Tool, webextract.CompletionOptions) (map[string]any, error) {
	return nil, webextract.Errorf(webextract.EBACKEND, "ollama backend does not support tool calls")
}

// ListModels returns the names reported by /api/tags.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	var resp struct {
		Models []struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		} `json:"models"`
	}
	if err := b.client.GetJSON(ctx, b.baseURL+"/api/tags", &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ClassifyError maps transport errors. A connection failure means the
// Ollama server is not running.
func (b *Backend) ClassifyError(err error) error {
	err = wehttp.Classify(err)
	if webextract.ErrorCode(err) == webextract.ECONNECT {
		return webextract.Wrap(webextract.ECONNECT, err, "cannot connect to Ollama at %s", b.baseURL)
	}
	return err
}
