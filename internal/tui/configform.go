package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianshen/agentwiki/internal/config"
)

// ConfigForm wraps a Huh form for editing agentwiki configuration.
type ConfigForm struct {
	form               *huh.Form
	cfg                *config.Config
	savePath           string
	maxAbstractionsStr string
	maxFileSizeStr     string
}

// NewConfigForm creates a config editor form populated from the given config.
func NewConfigForm(cfg *config.Config, savePath string) *ConfigForm {
	cf := &ConfigForm{
		cfg:                cfg,
		savePath:           savePath,
		maxAbstractionsStr: strconv.Itoa(cfg.Wiki.MaxAbstractions),
		maxFileSizeStr:     strconv.Itoa(cfg.Crawl.MaxFileSizeKB),
	}

	providerGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider").
			Options(
				huh.NewOption("OpenRouter", "openrouter"),
				huh.NewOption("Anthropic", "anthropic"),
				huh.NewOption("Gemini", "gemini"),
				huh.NewOption("Ollama (local)", "ollama"),
			).
			Value(&cfg.Provider.Default),
		huh.NewInput().
			Title("Model").
			Description("Leave empty to use the provider's first listed model.").
			Value(&cfg.Provider.Model),
	).Title("Provider")

	wikiGroup := huh.NewGroup(
		huh.NewInput().
			Title("Language").
			Placeholder("english").
			Value(&cfg.Wiki.Language),
		huh.NewInput().
			Title("Output Directory").
			Value(&cfg.Wiki.OutputDir),
		huh.NewSelect[string]().
			Title("Output Format").
			Options(
				huh.NewOption("Plain Markdown", config.FormatRawMarkdown),
				huh.NewOption("Hugo", config.FormatHugo),
				huh.NewOption("Docusaurus", config.FormatDocusaurus),
			).
			Value(&cfg.Wiki.Format),
		huh.NewInput().
			Title("Max Abstractions").
			Placeholder("10").
			Validate(positiveInt).
			Value(&cf.maxAbstractionsStr),
	).Title("Wiki")

	crawlGroup := huh.NewGroup(
		huh.NewInput().
			Title("Max File Size (KB)").
			Placeholder("100").
			Validate(nonNegativeInt).
			Value(&cf.maxFileSizeStr),
		huh.NewConfirm().
			Title("Cache LLM responses").
			Value(&cfg.Cache.Enabled),
	).Title("Crawl & Cache")

	cf.form = huh.NewForm(providerGroup, wikiGroup, crawlGroup)

	return cf
}

// GroupCount returns the number of form groups.
func (c *ConfigForm) GroupCount() int { return 3 }

// Run shows the form in the terminal and saves the result when submitted.
func (c *ConfigForm) Run() error {
	if err := c.form.Run(); err != nil {
		return err
	}
	return c.Save()
}

// Save persists the config to disk. It parses the numeric fields back from
// their string inputs before saving.
func (c *ConfigForm) Save() error {
	if v, err := strconv.Atoi(strings.TrimSpace(c.maxAbstractionsStr)); err == nil {
		c.cfg.Wiki.MaxAbstractions = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.maxFileSizeStr)); err == nil {
		c.cfg.Crawl.MaxFileSizeKB = v
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	return config.Save(c.savePath, c.cfg)
}

// Form returns the underlying huh.Form.
func (c *ConfigForm) Form() *huh.Form { return c.form }

// IsCompleted returns true if the form has been completed (submitted).
func (c *ConfigForm) IsCompleted() bool { return c.form.State == huh.StateCompleted }

// IsAborted returns true if the form has been aborted (cancelled).
func (c *ConfigForm) IsAborted() bool { return c.form.State == huh.StateAborted }

func positiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func nonNegativeInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return fmt.Errorf("enter zero or a positive number")
	}
	return nil
}
