package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/HimashaHerath/webextract"
	"gopkg.in/yaml.v3"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Run executes the version command.
func (c *VersionCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stdout, "webextract %s\n", version)
	return nil
}

// Run executes the test command.
func (c *TestCmd) Run(deps *Dependencies) error {
	llm := deps.Config.LLM
	fmt.Fprintf(deps.Stdout, "Testing %s model %q...\n", llm.Provider, llm.Model)

	if err := deps.Extractor.TestConnection(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webextract.ErrorMessage(err))
		for _, hint := range hints(llm, err) {
			fmt.Fprintf(deps.Stderr, "Hint: %s\n", hint)
		}
		return err
	}

	fmt.Fprintln(deps.Stdout, "Connection OK")
	return nil
}

// hints returns recovery suggestions for a failed connection test.
func hints(llm webextract.LLMConfig, err error) []string {
	switch webextract.ErrorCode(err) {
	case webextract.ECONNECT:
		if llm.Provider == webextract.ProviderOllama {
			return []string{"Check that Ollama is running: ollama serve", "Check --base-url (currently " + llm.BaseURL + ")"}
		}
		return []string{"Check network access and --base-url"}
	case webextract.EUNAVAILABLE:
		if llm.Provider == webextract.ProviderOllama {
			return []string{"Pull the model: ollama pull " + llm.Model, "List local models: ollama list"}
		}
		return []string{"Try a different model with --model"}
	case webextract.EAUTH:
		return []string{"Set WEBEXTRACT_API_KEY to a valid key"}
	}
	return nil
}

// Run executes the config show command.
func (c *ConfigShowCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "********"
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "# %s\n%s", deps.ConfigPath, data)
	return nil
}

// Run executes the config init command.
func (c *ConfigInitCmd) Run(deps *Dependencies) error {
	if _, err := os.Stat(deps.ConfigPath); err == nil && !c.Force {
		fmt.Fprintf(deps.Stderr, "error: %s already exists (use --force to overwrite)\n", deps.ConfigPath)
		return webextract.Errorf(webextract.EINVALID, "config file %s already exists", deps.ConfigPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := writeConfig(deps.ConfigPath, webextract.DefaultConfig()); err != nil {
		fmt.Fprintf(deps.Stderr, "error: writing %s: %v\n", deps.ConfigPath, err)
		return err
	}
	fmt.Fprintf(deps.Stdout, "Wrote %s\n", deps.ConfigPath)
	return nil
}
