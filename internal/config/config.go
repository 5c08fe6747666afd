package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/julianshen/agentwiki/internal/fileutil"
)

// Output formats understood by the renderer.
const (
	FormatRawMarkdown = "raw-md"
	FormatHugo        = "hugo"
	FormatDocusaurus  = "docusaurus"
)

// Cache backends.
const (
	CacheBackendJSON   = "json"
	CacheBackendSQLite = "sqlite"
)

// CacheFileName is the name of the JSON response cache document.
const CacheFileName = "agentwiki.llm_cache.json"

// Config represents the top-level application configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Wiki     WikiConfig     `toml:"wiki"`
	Crawl    CrawlConfig    `toml:"crawl"`
	Cache    CacheConfig    `toml:"cache"`
	LLM      LLMConfig      `toml:"llm"`
}

// ProviderConfig holds settings for AI provider selection and configuration.
type ProviderConfig struct {
	Default    string               `toml:"default"`
	Model      string               `toml:"model"`
	OpenRouter HostedProviderConfig `toml:"openrouter"`
	Anthropic  HostedProviderConfig `toml:"anthropic"`
	Gemini     HostedProviderConfig `toml:"gemini"`
	Ollama     OllamaProviderConfig `toml:"ollama"`
}

// HostedProviderConfig holds settings for a provider that needs an API key.
type HostedProviderConfig struct {
	APIKeySource string `toml:"api_key_source"`
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
}

// OllamaProviderConfig holds settings for a local Ollama server.
type OllamaProviderConfig struct {
	BaseURL string `toml:"base_url"`
}

// WikiConfig controls what the pipeline generates and where it goes.
type WikiConfig struct {
	Language               string `toml:"language"`
	OutputDir              string `toml:"output_dir"`
	Format                 string `toml:"format"`
	MaxAbstractions        int    `toml:"max_abstractions"`
	RequireFullCoverage    bool   `toml:"require_relationship_coverage"`
	PreviousChaptersBudget int    `toml:"previous_chapters_budget"`
}

// CrawlConfig controls which files are read from the source directory.
type CrawlConfig struct {
	Include       []string `toml:"include"`
	Exclude       []string `toml:"exclude"`
	MaxFileSizeKB int      `toml:"max_file_size_kb"`
}

// CacheConfig controls the LLM response cache.
type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MemoryEntries int    `toml:"memory_entries"`
}

// LLMConfig tunes gateway behaviour around provider calls.
type LLMConfig struct {
	MaxRetries        int `toml:"max_retries"`
	RetryBackoffMS    int `toml:"retry_backoff_ms"`
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Default: "openrouter",
			Model:   "",
			OpenRouter: HostedProviderConfig{
				APIKeySource: "keyring",
				BaseURL:      "https://openrouter.ai/api/v1",
			},
			Anthropic: HostedProviderConfig{
				APIKeySource: "keyring",
				BaseURL:      "https://api.anthropic.com",
			},
			Gemini: HostedProviderConfig{
				APIKeySource: "keyring",
			},
			Ollama: OllamaProviderConfig{
				BaseURL: "http://localhost:11434",
			},
		},
		Wiki: WikiConfig{
			Language:            "english",
			OutputDir:           filepath.Join("docs", "agentwiki"),
			Format:              FormatRawMarkdown,
			MaxAbstractions:     10,
			RequireFullCoverage: true,
		},
		Crawl: CrawlConfig{
			Include:       DefaultIncludePatterns(),
			Exclude:       DefaultExcludePatterns(),
			MaxFileSizeKB: 100,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Backend:       CacheBackendJSON,
			MemoryEntries: 256,
		},
		LLM: LLMConfig{
			RetryBackoffMS: 1000,
		},
	}
}

// Dir returns the per-user configuration directory (~/.config/agentwiki).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentwiki"), nil
}

// DefaultPath returns the path of the default configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CachePath returns the configured cache location, falling back to a file
// in the configuration directory. The SQLite backend uses a .db suffix.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.Cache.Backend == CacheBackendSQLite {
		return filepath.Join(dir, "agentwiki.llm_cache.db"), nil
	}
	return filepath.Join(dir, CacheFileName), nil
}

// Load reads the TOML file at path on top of DefaultConfig. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o600)
}

// Validate reports the first setting that cannot be used as given.
func (c *Config) Validate() error {
	switch c.Wiki.Format {
	case FormatRawMarkdown, FormatHugo, FormatDocusaurus:
	default:
		return fmt.Errorf("unknown wiki.format %q (want %s, %s or %s)",
			c.Wiki.Format, FormatRawMarkdown, FormatHugo, FormatDocusaurus)
	}
	switch c.Cache.Backend {
	case CacheBackendJSON, CacheBackendSQLite:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Wiki.MaxAbstractions < 1 {
		return fmt.Errorf("wiki.max_abstractions must be positive, got %d", c.Wiki.MaxAbstractions)
	}
	if c.Crawl.MaxFileSizeKB < 0 {
		return fmt.Errorf("crawl.max_file_size_kb must not be negative, got %d", c.Crawl.MaxFileSizeKB)
	}
	if c.LLM.MaxRetries < 0 || c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.max_retries and llm.requests_per_minute must not be negative")
	}
	return nil
}
