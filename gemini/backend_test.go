package gemini_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/gemini"
	"github.com/HimashaHerath/webextract/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertSchema(t *testing.T) {
	t.Parallel()

	t.Run("converts the default tool schema", func(t *testing.T) {
		t.Parallel()

		s := gemini.ConvertSchema(prompt.ToolSchema(nil))

		assert.Equal(t, genai.TypeObject, s.Type)
		assert.Equal(t, []string{"summary", "topics", "category", "sentiment"}, s.Required)
		require.Contains(t, s.Properties, "topics")
		assert.Equal(t, genai.TypeArray, s.Properties["topics"].Type)
		assert.Equal(t, genai.TypeString, s.Properties["topics"].Items.Type)
		assert.Equal(t, []string{"positive", "negative", "neutral"}, s.Properties["sentiment"].Enum)

		entities := s.Properties["entities"]
		assert.Equal(t, genai.TypeObject, entities.Type)
		assert.Equal(t, genai.TypeArray, entities.Properties["people"].Type)
	})

	t.Run("accepts untyped required lists and missing types", func(t *testing.T) {
		t.Parallel()

		s := gemini.ConvertSchema(map[string]any{
			"properties": map[string]any{
				"price": map[string]any{"type": "number"},
				"title": map[string]any{"description": "Title"},
			},
			"required": []any{"price"},
		})

		assert.Equal(t, genai.TypeObject, s.Type)
		assert.Equal(t, []string{"price"}, s.Required)
		assert.Equal(t, genai.TypeNumber, s.Properties["price"].Type)
		assert.Equal(t, genai.TypeString, s.Properties["title"].Type)
		assert.Equal(t, "Title", s.Properties["title"].Description)
	})

	t.Run("returns nil for nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, gemini.ConvertSchema(nil))
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig(webextract.CompletionOptions{
		Temperature: 0.3,
		MaxTokens:   500,
		System:      "SYS",
	})

	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.3, *config.Temperature, 1e-6)
	assert.Equal(t, int32(500), config.MaxOutputTokens)
	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "SYS", config.SystemInstruction.Parts[0].Text)
}

func TestBackend_ClassifyError(t *testing.T) {
	t.Parallel()

	b := gemini.NewBackend(nil, "")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limit", errors.New("Error 429, Message: quota, Status: RESOURCE_EXHAUSTED"), webextract.ERATELIMIT},
		{"bad key", errors.New("Error 400, Message: API key not valid. Please pass a valid API key."), webextract.EAUTH},
		{"permission", errors.New("Error 403, Status: PERMISSION_DENIED"), webextract.EAUTH},
		{"missing model", errors.New("Error 404, Message: models/x is not found, Status: NOT_FOUND"), webextract.EUNAVAILABLE},
		{"deadline", context.DeadlineExceeded, webextract.ETIMEOUT},
		{"server", errors.New("Error 500, Status: INTERNAL"), webextract.EBACKEND},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, webextract.ErrorCode(b.ClassifyError(tt.err)))
		})
	}
}

func TestNewBackend_DefaultModel(t *testing.T) {
	t.Parallel()

	b := gemini.NewBackend(nil, "")

	assert.Equal(t, gemini.DefaultModel, b.Model())
	assert.Equal(t, webextract.ProviderGemini, b.Provider())
	assert.True(t, b.SupportsToolCalls())
}
