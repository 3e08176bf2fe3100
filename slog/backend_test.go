package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/mock"
	weslog "github.com/HimashaHerath/webextract/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBackend() *mock.Backend {
	return &mock.Backend{
		ProviderFn:          func() webextract.Provider { return webextract.ProviderOpenAI },
		ModelFn:             func() string { return "gpt-4o-mini" },
		SupportsToolCallsFn: func() bool { return true },
		ClassifyErrorFn:     func(err error) error { return err },
	}
}

func TestLoggingBackend(t *testing.T) {
	t.Parallel()

	t.Run("logs completions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := newMockBackend()
		inner.CompleteFn = func(context.Context, string, webextract.CompletionOptions) (string, error) {
			return `{"summary": "x"}`, nil
		}

		b := weslog.NewLoggingBackend(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		text, err := b.Complete(context.Background(), "prompt", webextract.CompletionOptions{})

		require.NoError(t, err)
		assert.JSONEq(t, `{"summary": "x"}`, text)
		output := buf.String()
		assert.Contains(t, output, `msg="llm complete"`)
		assert.Contains(t, output, "provider=openai")
		assert.Contains(t, output, "model=gpt-4o-mini")
		assert.Contains(t, output, "prompt_chars=6")
		assert.Contains(t, output, "response_chars=16")
	})

	t.Run("logs tool calls with their errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := newMockBackend()
		inner.CompleteToolFn = func(context.Context, string, webextract.Tool, webextract.CompletionOptions) (map[string]any, error) {
			return nil, webextract.Errorf(webextract.ERATELIMIT, "slow down")
		}

		b := weslog.NewLoggingBackend(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		_, err := b.CompleteTool(context.Background(), "prompt", webextract.Tool{Name: "extract_structured_data"}, webextract.CompletionOptions{})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, `msg="llm tool call"`)
		assert.Contains(t, output, "tool=extract_structured_data")
		assert.Contains(t, output, `err="slow down"`)
	})

	t.Run("delegates descriptors", func(t *testing.T) {
		t.Parallel()

		b := weslog.NewLoggingBackend(newMockBackend(), slog.New(slog.DiscardHandler))

		assert.Equal(t, webextract.ProviderOpenAI, b.Provider())
		assert.Equal(t, "gpt-4o-mini", b.Model())
		assert.True(t, b.SupportsToolCalls())
	})
}

func TestLoggingGenerator(t *testing.T) {
	t.Parallel()

	t.Run("logs fallback results", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Generator{
			GenerateFn: func(context.Context, string, *webextract.Schema, string) (webextract.StructuredResult, error) {
				return webextract.NewResultBuilder().Set(webextract.FieldExtractionError, true).Default(), nil
			},
		}

		g := weslog.NewLoggingGenerator(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		result, err := g.Generate(context.Background(), "content", nil, "")

		require.NoError(t, err)
		assert.True(t, result.ExtractionError())
		assert.Contains(t, buf.String(), "fallback=true")
	})

	t.Run("logs availability failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Generator{
			CheckAvailabilityFn: func(context.Context) error {
				return webextract.Errorf(webextract.EUNAVAILABLE, "model missing")
			},
		}

		g := weslog.NewLoggingGenerator(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		err := g.CheckAvailability(context.Background())

		assert.Equal(t, webextract.EUNAVAILABLE, webextract.ErrorCode(err))
		assert.Contains(t, buf.String(), `err="model missing"`)
	})

	t.Run("logs summary length", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Generator{
			SummarizeFn: func(context.Context, string, int) string { return "short" },
		}

		g := weslog.NewLoggingGenerator(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		assert.Equal(t, "short", g.Summarize(context.Background(), "content", 100))
		assert.Contains(t, buf.String(), "chars=5")
	})
}

func TestLoggingContentExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.ContentExtractor{
		ExtractFn: func(_, pageURL string) (*webextract.ExtractedContent, error) {
			return &webextract.ExtractedContent{URL: pageURL, MainContent: "hello", Links: []string{"a", "b"}}, nil
		},
	}
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := weslog.NewLoggingContentExtractor(inner, logger)
	content, err := e.Extract("<html></html>", "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, "hello", content.MainContent)
	output := buf.String()
	assert.Contains(t, output, "chars=5")
	assert.Contains(t, output, "links=2")
}
