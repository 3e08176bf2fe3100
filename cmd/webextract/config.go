package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/gemini"
	"gopkg.in/yaml.v3"
)

// defaultModels is used when the provider changes but no model is named.
var defaultModels = map[webextract.Provider]string{
	webextract.ProviderOllama:    webextract.DefaultModel,
	webextract.ProviderOpenAI:    "gpt-4o-mini",
	webextract.ProviderAnthropic: "claude-3-5-sonnet-20241022",
	webextract.ProviderGemini:    gemini.DefaultModel,
}

// defaultConfigPath returns ~/.webextract/config.yaml, or a relative path
// when the home directory is unknown.
func defaultConfigPath(getenv func(string) string) string {
	if path := getenv("WEBEXTRACT_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "webextract.yaml"
	}
	return filepath.Join(home, ".webextract", "config.yaml")
}

// loadConfig layers the config file and the environment over the defaults.
// A missing file is not an error.
func loadConfig(path string, getenv func(string) string) (webextract.Config, error) {
	cfg := webextract.DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, webextract.Wrap(webextract.EINVALID, err, "reading config %s: %v", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, webextract.Wrap(webextract.EINVALID, err, "parsing config %s: %v", path, err)
		}
	}

	applyEnv(&cfg, env(getenv))
	return cfg, nil
}

// env reads configuration from environment variables.
type env func(string) string

func (e env) str(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) int(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func (e env) float(key string, defaultValue float64) float64 {
	if value := e(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (e env) duration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare numbers are seconds.
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

func applyEnv(cfg *webextract.Config, e env) {
	s := &cfg.Scraping
	s.RequestTimeout = e.duration("WEBEXTRACT_REQUEST_TIMEOUT", s.RequestTimeout)
	s.MaxContentLength = e.int("WEBEXTRACT_MAX_CONTENT", s.MaxContentLength)
	s.RetryAttempts = e.int("WEBEXTRACT_RETRY_ATTEMPTS", s.RetryAttempts)
	s.RequestDelay = e.duration("WEBEXTRACT_REQUEST_DELAY", s.RequestDelay)

	l := &cfg.LLM
	provider := webextract.Provider(e.str("WEBEXTRACT_LLM_PROVIDER", string(l.Provider)))
	setProvider(l, provider)
	l.BaseURL = e.str("WEBEXTRACT_LLM_BASE_URL", l.BaseURL)
	l.Model = e.str("WEBEXTRACT_MODEL", l.Model)
	l.Temperature = e.float("WEBEXTRACT_TEMPERATURE", l.Temperature)
	l.MaxTokens = e.int("WEBEXTRACT_MAX_TOKENS", l.MaxTokens)
	l.APIKey = e.str("WEBEXTRACT_API_KEY", l.APIKey)
	l.Timeout = e.duration("WEBEXTRACT_LLM_TIMEOUT", l.Timeout)
	if l.APIKey == "" && l.Provider == webextract.ProviderGemini {
		l.APIKey = e.str("GEMINI_API_KEY", "")
	}
}

// setProvider switches provider, moving the model and base URL off the
// previous provider's defaults.
func setProvider(l *webextract.LLMConfig, p webextract.Provider) {
	if p == l.Provider {
		return
	}
	if l.Model == defaultModels[l.Provider] {
		l.Model = defaultModels[p]
	}
	if l.Provider == webextract.ProviderOllama && l.BaseURL == webextract.DefaultOllamaURL {
		l.BaseURL = ""
	}
	if p == webextract.ProviderOllama && l.BaseURL == "" {
		l.BaseURL = webextract.DefaultOllamaURL
	}
	l.Provider = p
}

// apply copies the flags that were set onto cfg.
func (f PipelineFlags) apply(cfg *webextract.Config, getenv func(string) string) {
	if f.Provider != "" {
		setProvider(&cfg.LLM, webextract.Provider(f.Provider))
		if cfg.LLM.Provider == webextract.ProviderGemini && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = getenv("GEMINI_API_KEY")
		}
	}
	if f.Model != "" {
		cfg.LLM.Model = f.Model
	}
	if f.BaseURL != "" {
		cfg.LLM.BaseURL = f.BaseURL
	}
	if f.MaxContent > 0 {
		cfg.Scraping.MaxContentLength = f.MaxContent
	}
	if f.Timeout > 0 {
		cfg.Scraping.RequestTimeout = f.Timeout
	}
}

// writeConfig writes cfg as YAML, creating parent directories.
func writeConfig(path string, cfg webextract.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
