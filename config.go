package webextract

import "time"

// Config holds every tunable of the pipeline. Values are resolved once at
// process start and passed to constructors.
type Config struct {
	Scraping   ScrapingConfig   `yaml:"scraping"`
	LLM        LLMConfig        `yaml:"llm"`
	Confidence ConfidenceConfig `yaml:"confidence"`

	// CacheThreshold is the confidence a record must exceed to be cached.
	CacheThreshold float64 `yaml:"cache_threshold"`

	// BatchConcurrency bounds the number of URLs extracted at once.
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// ScrapingConfig controls fetching and content selection.
type ScrapingConfig struct {
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxContentLength int           `yaml:"max_content_length"`
	RequestDelay     time.Duration `yaml:"request_delay"`
	UserAgents       []string      `yaml:"user_agents"`
	RetryAttempts    int           `yaml:"retry_attempts"`
}

// LLMConfig controls the model backend and orchestration.
type LLMConfig struct {
	Provider      Provider      `yaml:"provider"`
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key,omitempty"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
	RetryAttempts int           `yaml:"retry_attempts"`
	ToolAttempts  int           `yaml:"tool_attempts"`
	Timeout       time.Duration `yaml:"timeout"`
	CustomPrompt  string        `yaml:"custom_prompt,omitempty"`

	// VerifyModel checks model availability before the first extraction.
	VerifyModel bool `yaml:"verify_model"`
}

// LengthBonus awards Bonus to content at least MinLength characters long.
type LengthBonus struct {
	MinLength int     `yaml:"min_length"`
	Bonus     float64 `yaml:"bonus"`
}

// ConfidenceConfig holds the weights of the confidence formula.
type ConfidenceConfig struct {
	BaseScore        float64       `yaml:"base_score"`
	TitleBonus       float64       `yaml:"title_bonus"`
	DescriptionBonus float64       `yaml:"description_bonus"`
	LengthBonuses    []LengthBonus `yaml:"length_bonuses"`

	StructuredBase   float64 `yaml:"structured_base"`
	SummaryBonus     float64 `yaml:"summary_bonus"`
	SummaryMinLength int     `yaml:"summary_min_length"`
	TopicsBonus      float64 `yaml:"topics_bonus"`
	EntitiesBonus    float64 `yaml:"entities_bonus"`
	RichDataBonus    float64 `yaml:"rich_data_bonus"`

	// RichDataThreshold is the number of populated fields that earns the
	// rich data bonus. When RichDataFraction is positive the threshold is
	// instead that fraction of the result's fields, rounded up.
	RichDataThreshold int     `yaml:"rich_data_threshold"`
	RichDataFraction  float64 `yaml:"rich_data_fraction"`

	ErrorPenalty        float64 `yaml:"error_penalty"`
	EmptyContentPenalty float64 `yaml:"empty_content_penalty"`

	MinScore float64 `yaml:"min_score"`
	MaxScore float64 `yaml:"max_score"`
}

// Default values.
const (
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxContentLength = 10000
	DefaultRequestDelay     = time.Second
	DefaultRetryAttempts    = 3
	DefaultToolAttempts     = 3
	DefaultModel            = "llama3.2"
	DefaultOllamaURL        = "http://localhost:11434"
	DefaultTemperature      = 0.1
	DefaultMaxTokens        = 4000
	DefaultLLMTimeout       = 60 * time.Second
	DefaultCacheThreshold   = 0.3
	DefaultBatchConcurrency = 3
)

// DefaultUserAgents is rotated across fetches.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Scraping: ScrapingConfig{
			RequestTimeout:   DefaultRequestTimeout,
			MaxContentLength: DefaultMaxContentLength,
			RequestDelay:     DefaultRequestDelay,
			UserAgents:       append([]string(nil), DefaultUserAgents...),
			RetryAttempts:    DefaultRetryAttempts,
		},
		LLM: LLMConfig{
			Provider:      ProviderOllama,
			BaseURL:       DefaultOllamaURL,
			Model:         DefaultModel,
			Temperature:   DefaultTemperature,
			MaxTokens:     DefaultMaxTokens,
			RetryAttempts: DefaultRetryAttempts,
			ToolAttempts:  DefaultToolAttempts,
			Timeout:       DefaultLLMTimeout,
		},
		Confidence:       DefaultConfidenceConfig(),
		CacheThreshold:   DefaultCacheThreshold,
		BatchConcurrency: DefaultBatchConcurrency,
	}
}

// DefaultConfidenceConfig returns the default confidence weights.
func DefaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		BaseScore:        0.1,
		TitleBonus:       0.1,
		DescriptionBonus: 0.05,
		LengthBonuses: []LengthBonus{
			{MinLength: 1000, Bonus: 0.2},
			{MinLength: 500, Bonus: 0.15},
			{MinLength: 200, Bonus: 0.1},
			{MinLength: 100, Bonus: 0.05},
		},
		StructuredBase:      0.2,
		SummaryBonus:        0.1,
		SummaryMinLength:    20,
		TopicsBonus:         0.05,
		EntitiesBonus:       0.05,
		RichDataBonus:       0.1,
		RichDataThreshold:   4,
		ErrorPenalty:        -0.5,
		EmptyContentPenalty: -0.3,
		MinScore:            0.0,
		MaxScore:            1.0,
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	switch {
	case c.Scraping.RequestTimeout <= 0:
		return Errorf(EINVALID, "request timeout must be positive")
	case c.Scraping.MaxContentLength <= 0:
		return Errorf(EINVALID, "max content length must be positive")
	case c.Scraping.RequestDelay < 0:
		return Errorf(EINVALID, "request delay must not be negative")
	case c.Scraping.RetryAttempts <= 0:
		return Errorf(EINVALID, "fetch retry attempts must be positive")
	case !c.LLM.Provider.Valid():
		return Errorf(EINVALID, "unknown provider %q", c.LLM.Provider)
	case c.LLM.Model == "":
		return Errorf(EINVALID, "model name required")
	case c.LLM.Temperature < 0 || c.LLM.Temperature > 2:
		return Errorf(EINVALID, "temperature must be between 0 and 2")
	case c.LLM.MaxTokens <= 0:
		return Errorf(EINVALID, "max tokens must be positive")
	case c.LLM.RetryAttempts <= 0:
		return Errorf(EINVALID, "retry attempts must be positive")
	case c.LLM.Timeout <= 0:
		return Errorf(EINVALID, "LLM timeout must be positive")
	case c.LLM.Provider.RequiresAPIKey() && c.LLM.APIKey == "":
		return Errorf(EINVALID, "API key required for provider %q", c.LLM.Provider)
	case c.CacheThreshold < 0 || c.CacheThreshold > 1:
		return Errorf(EINVALID, "cache threshold must be between 0 and 1")
	case c.BatchConcurrency <= 0:
		return Errorf(EINVALID, "batch concurrency must be positive")
	}
	return nil
}
