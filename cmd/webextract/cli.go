package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/confidence"
	"github.com/HimashaHerath/webextract/extract"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Config is the resolved configuration and ConfigPath the file it was
	// read from, or would be written to.
	Config     webextract.Config
	ConfigPath string

	// Extractor and Scorer are wired only for commands that extract.
	Extractor *extract.Extractor
	Scorer    *confidence.AdaptiveScorer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ConfigFile string `name:"config" type:"path" help:"Config file (default ~/.webextract/config.yaml)"`
	Verbose    bool   `short:"v" help:"Log pipeline events to stderr"`

	Extract ExtractCmd `cmd:"" help:"Extract structured data from a web page"`
	Batch   BatchCmd   `cmd:"" help:"Extract several pages, one JSON record per line"`
	Test    TestCmd    `cmd:"" help:"Check the model backend connection"`
	Version VersionCmd `cmd:"" help:"Print the version"`
	Config  ConfigCmd  `cmd:"" help:"Show or initialize the configuration"`
}

// PipelineFlags override configuration for commands that talk to a model.
type PipelineFlags struct {
	Provider   string        `help:"Model provider (ollama, openai, anthropic, gemini)"`
	Model      string        `short:"m" help:"Model name"`
	BaseURL    string        `name:"base-url" help:"Provider API base URL"`
	MaxContent int           `name:"max-content" help:"Maximum characters of page content"`
	Timeout    time.Duration `short:"t" help:"Page fetch timeout"`
	Static     bool          `help:"Fetch without a browser (no JavaScript)"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL     string `arg:"" help:"Page URL"`
	Format  string `short:"f" default:"json" enum:"json,yaml,pretty" help:"Output format (json, yaml, pretty)"`
	Output  string `short:"o" type:"path" help:"Write output to a file"`
	Schema  string `short:"s" type:"path" help:"JSON file describing the fields to extract"`
	Prompt  string `short:"p" help:"Custom extraction instructions"`
	Summary int    `help:"Replace the summary with one of at most N characters"`
	Force   bool   `help:"Bypass the cache"`

	PipelineFlags `embed:""`
}

// BatchCmd is the "batch" subcommand.
type BatchCmd struct {
	URLs        []string `arg:"" name:"url" help:"Page URLs"`
	Concurrency int      `short:"c" help:"Concurrent extractions (default from config)"`
	Schema      string   `short:"s" type:"path" help:"JSON file describing the fields to extract"`
	Prompt      string   `short:"p" help:"Custom extraction instructions"`
	Feedback    string   `type:"path" help:"YAML file mapping URLs to observed quality (0-1); prints calibration statistics"`

	PipelineFlags `embed:""`
}

// TestCmd is the "test" subcommand.
type TestCmd struct {
	PipelineFlags `embed:""`
}

// VersionCmd is the "version" subcommand.
type VersionCmd struct{}

// ConfigCmd groups the configuration subcommands.
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration"`
	Init ConfigInitCmd `cmd:"" help:"Write the default configuration file"`
}

// ConfigShowCmd is the "config show" subcommand.
type ConfigShowCmd struct{}

// ConfigInitCmd is the "config init" subcommand.
type ConfigInitCmd struct {
	Force bool `help:"Overwrite an existing file"`
}
