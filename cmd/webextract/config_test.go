package main_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// shownConfig runs "config show" and decodes its output.
func shownConfig(t *testing.T, h *harness) webextract.Config {
	t.Helper()

	stdout, stderr, err := h.run("config", "show")
	require.NoError(t, err, stderr)

	var cfg webextract.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	return cfg
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	t.Run("prints defaults when no file exists", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		stdout, _, err := h.run("config", "show")

		require.NoError(t, err)
		assert.Contains(t, stdout, "# "+h.config)

		cfg := shownConfig(t, h)
		assert.Equal(t, webextract.DefaultConfig(), cfg)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, os.WriteFile(h.config, []byte(`
scraping:
  request_timeout: 10s
  max_content_length: 5000
llm:
  model: mistral
  temperature: 0.3
batch_concurrency: 8
`), 0o600))

		cfg := shownConfig(t, h)

		assert.Equal(t, "10s", cfg.Scraping.RequestTimeout.String())
		assert.Equal(t, 5000, cfg.Scraping.MaxContentLength)
		assert.Equal(t, "mistral", cfg.LLM.Model)
		assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
		assert.Equal(t, 8, cfg.BatchConcurrency)
		assert.Equal(t, webextract.DefaultRequestDelay, cfg.Scraping.RequestDelay)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, os.WriteFile(h.config, []byte("llm:\n  model: mistral\n"), 0o600))
		h.main.Getenv = env(map[string]string{
			"WEBEXTRACT_MODEL":           "qwen2.5",
			"WEBEXTRACT_MAX_CONTENT":     "2500",
			"WEBEXTRACT_REQUEST_TIMEOUT": "15",
			"WEBEXTRACT_TEMPERATURE":     "not-a-number",
		})

		cfg := shownConfig(t, h)

		assert.Equal(t, "qwen2.5", cfg.LLM.Model)
		assert.Equal(t, 2500, cfg.Scraping.MaxContentLength)
		assert.Equal(t, "15s", cfg.Scraping.RequestTimeout.String())
		assert.InDelta(t, webextract.DefaultTemperature, cfg.LLM.Temperature, 1e-9)
	})

	t.Run("switching provider moves off ollama defaults", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.main.Getenv = env(map[string]string{
			"WEBEXTRACT_LLM_PROVIDER": "openai",
		})

		cfg := shownConfig(t, h)

		assert.Equal(t, webextract.ProviderOpenAI, cfg.LLM.Provider)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
		assert.Empty(t, cfg.LLM.BaseURL)
	})

	t.Run("masks the API key", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.main.Getenv = env(map[string]string{
			"WEBEXTRACT_LLM_PROVIDER": "anthropic",
			"WEBEXTRACT_API_KEY":      "sk-secret",
		})

		stdout, _, err := h.run("config", "show")

		require.NoError(t, err)
		assert.NotContains(t, stdout, "sk-secret")
		assert.Contains(t, stdout, "********")
	})

	t.Run("reads the Gemini key from GEMINI_API_KEY", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.main.Getenv = env(map[string]string{
			"WEBEXTRACT_LLM_PROVIDER": "gemini",
			"GEMINI_API_KEY":          "g-key",
		})

		cfg := shownConfig(t, h)

		assert.Equal(t, webextract.ProviderGemini, cfg.LLM.Provider)
		assert.Equal(t, "********", cfg.LLM.APIKey)
	})

	t.Run("uses WEBEXTRACT_CONFIG when no flag is given", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache_threshold: 0.5\n"), 0o600))

		h := newHarness(t)
		h.main.Getenv = env(map[string]string{"WEBEXTRACT_CONFIG": path})

		var stdout, stderr bytes.Buffer
		err := h.main.Run(t.Context(), []string{"config", "show"}, &stdout, &stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "# "+path)
		assert.Contains(t, stdout.String(), "cache_threshold: 0.5")
	})
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	t.Run("writes the default configuration", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.config = filepath.Join(t.TempDir(), "nested", "config.yaml")

		stdout, _, err := h.run("config", "init")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Wrote "+h.config)

		info, err := os.Stat(h.config)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		assert.Equal(t, webextract.DefaultConfig(), shownConfig(t, h))
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, os.WriteFile(h.config, []byte("batch_concurrency: 9\n"), 0o600))

		_, stderr, err := h.run("config", "init")

		require.Error(t, err)
		assert.Contains(t, stderr, "already exists")
		assert.Equal(t, 9, shownConfig(t, h).BatchConcurrency)
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, os.WriteFile(h.config, []byte("batch_concurrency: 9\n"), 0o600))

		_, _, err := h.run("config", "init", "--force")

		require.NoError(t, err)
		assert.Equal(t, webextract.DefaultBatchConcurrency, shownConfig(t, h).BatchConcurrency)
	})
}
