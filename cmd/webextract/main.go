package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/anthropic"
	"github.com/HimashaHerath/webextract/confidence"
	"github.com/HimashaHerath/webextract/extract"
	"github.com/HimashaHerath/webextract/gemini"
	"github.com/HimashaHerath/webextract/goquery"
	wehttp "github.com/HimashaHerath/webextract/http"
	"github.com/HimashaHerath/webextract/lingua"
	"github.com/HimashaHerath/webextract/llm"
	"github.com/HimashaHerath/webextract/ollama"
	"github.com/HimashaHerath/webextract/openai"
	"github.com/HimashaHerath/webextract/readability"
	"github.com/HimashaHerath/webextract/rod"
	weslog "github.com/HimashaHerath/webextract/slog"
	"github.com/HimashaHerath/webextract/trafilatura"
	"github.com/alecthomas/kong"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv reads the environment. Set before calling Run().
	Getenv func(string) string

	// Services for end-to-end testing. When set they replace the
	// production implementations.
	Fetcher webextract.Fetcher
	Backend webextract.Backend
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("webextract"),
		kong.Description("Extract structured data from web pages with a language model"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'webextract --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps.ConfigPath = cli.ConfigFile
	if deps.ConfigPath == "" {
		deps.ConfigPath = defaultConfigPath(m.Getenv)
	}
	deps.Config, err = loadConfig(deps.ConfigPath, m.Getenv)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", webextract.ErrorMessage(err))
		return err
	}

	var flags *PipelineFlags
	switch strings.Fields(kongCtx.Command())[0] {
	case "extract":
		flags = &cli.Extract.PipelineFlags
	case "batch":
		flags = &cli.Batch.PipelineFlags
	case "test":
		flags = &cli.Test.PipelineFlags
	}

	if flags != nil {
		flags.apply(&deps.Config, m.Getenv)
		if err := deps.Config.Validate(); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", webextract.ErrorMessage(err))
			if deps.Config.LLM.Provider.RequiresAPIKey() && deps.Config.LLM.APIKey == "" {
				fmt.Fprintln(stderr, "Hint: Set WEBEXTRACT_API_KEY for this provider")
			}
			return err
		}

		closeFn, err := m.wireExtractor(deps, flags.Static)
		if err != nil {
			return err
		}
		defer closeFn()
	}

	return kongCtx.Run(deps)
}

// wireExtractor builds the extraction pipeline from deps.Config.
func (m *Main) wireExtractor(deps *Dependencies, static bool) (func(), error) {
	cfg := deps.Config
	logger := deps.Logger

	backend := m.Backend
	if backend == nil {
		b, err := newBackend(deps.Ctx, cfg.LLM, logger)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", webextract.ErrorMessage(err))
			return nil, err
		}
		backend = b
	}

	fetcher := m.Fetcher
	if fetcher == nil {
		f, err := newFetcher(cfg.Scraping, static)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or use --static")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = f
	}
	fetcher = weslog.NewLoggingFetcher(fetcher, logger)

	generator := llm.NewGenerator(
		weslog.NewLoggingBackend(backend, logger),
		cfg.LLM,
		cfg.Scraping.MaxContentLength,
		logger,
	)

	deps.Scorer = confidence.NewAdaptiveScorer(cfg.Confidence)
	deps.Extractor = extract.New(
		fetcher,
		weslog.NewLoggingContentExtractor(goquery.NewExtractor(cfg.Scraping.MaxContentLength), logger),
		weslog.NewLoggingGenerator(generator, logger),
		deps.Scorer,
		cfg,
		extract.WithEnrichers(
			readability.NewEnricher(),
			trafilatura.NewEnricher(),
			lingua.NewEnricher(),
		),
		extract.WithLogger(logger),
	)

	return func() { _ = fetcher.Close() }, nil
}

// newFetcher returns the browser fetcher, or the plain HTTP fetcher when
// static is set.
func newFetcher(cfg webextract.ScrapingConfig, static bool) (webextract.Fetcher, error) {
	if static {
		return wehttp.NewFetcher(
			wehttp.WithTimeout(cfg.RequestTimeout),
			wehttp.WithUserAgents(cfg.UserAgents...),
		), nil
	}
	return rod.NewFetcher(
		rod.WithFetchTimeout(cfg.RequestTimeout),
		rod.WithUserAgents(cfg.UserAgents...),
	)
}

// newBackend returns the Backend for the configured provider.
func newBackend(ctx context.Context, cfg webextract.LLMConfig, logger *slog.Logger) (webextract.Backend, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case webextract.ProviderOllama:
		return ollama.NewBackend(cfg.Model,
			ollama.WithBaseURL(cfg.BaseURL),
			ollama.WithHTTPClient(client),
			ollama.WithLogger(logger),
		), nil
	case webextract.ProviderOpenAI:
		opts := []openai.Option{openai.WithHTTPClient(client), openai.WithLogger(logger)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.NewBackend(cfg.Model, cfg.APIKey, opts...), nil
	case webextract.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithHTTPClient(client), anthropic.WithLogger(logger)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.NewBackend(cfg.Model, cfg.APIKey, opts...), nil
	case webextract.ProviderGemini:
		gc, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, webextract.Wrap(webextract.ECONNECT, err, "failed to create Gemini client: %v", err)
		}
		return gemini.NewBackend(gc, cfg.Model), nil
	}
	return nil, webextract.Errorf(webextract.EINVALID, "unknown provider %q", cfg.Provider)
}
