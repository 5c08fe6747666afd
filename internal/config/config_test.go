package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "openrouter", cfg.Provider.Default)
	assert.Equal(t, "", cfg.Provider.Model)
	assert.Equal(t, "english", cfg.Wiki.Language)
	assert.Equal(t, 10, cfg.Wiki.MaxAbstractions)
	assert.True(t, cfg.Wiki.RequireFullCoverage)
	assert.Equal(t, FormatRawMarkdown, cfg.Wiki.Format)
	assert.Equal(t, 100, cfg.Crawl.MaxFileSizeKB)
	assert.Contains(t, cfg.Crawl.Include, "*.go")
	assert.Contains(t, cfg.Crawl.Exclude, "node_modules/*")
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, CacheBackendJSON, cfg.Cache.Backend)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	tomlContent := `
[provider]
default = "anthropic"
model = "claude-sonnet-4-5"

[provider.anthropic]
api_key_source = "env"

[wiki]
language = "spanish"
format = "hugo"
max_abstractions = 6
require_relationship_coverage = false

[crawl]
include = ["*.rs"]
max_file_size_kb = 50

[cache]
backend = "sqlite"

[llm]
max_retries = 2
requests_per_minute = 20
`
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(tomlContent), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider.Default)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Provider.Model)
	assert.Equal(t, "env", cfg.Provider.Anthropic.APIKeySource)
	assert.Equal(t, "spanish", cfg.Wiki.Language)
	assert.Equal(t, FormatHugo, cfg.Wiki.Format)
	assert.Equal(t, 6, cfg.Wiki.MaxAbstractions)
	assert.False(t, cfg.Wiki.RequireFullCoverage)
	assert.Equal(t, []string{"*.rs"}, cfg.Crawl.Include)
	assert.Equal(t, 50, cfg.Crawl.MaxFileSizeKB)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 20, cfg.LLM.RequestsPerMinute)
	// Unset sections keep their defaults.
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Provider.OpenRouter.BaseURL)
	assert.Contains(t, cfg.Crawl.Exclude, "*.lock")
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", cfg.Provider.Default)
	assert.Equal(t, 10, cfg.Wiki.MaxAbstractions)
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("[invalid toml..."), 0644))

	_, err := Load(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Provider.Default = "ollama"
	cfg.Provider.Model = "llama3"
	cfg.Wiki.OutputDir = "out"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.Provider.Default)
	assert.Equal(t, "llama3", loaded.Provider.Model)
	assert.Equal(t, "out", loaded.Wiki.OutputDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad format", func(c *Config) { c.Wiki.Format = "pdf" }, "wiki.format"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"zero abstractions", func(c *Config) { c.Wiki.MaxAbstractions = 0 }, "max_abstractions"},
		{"negative size", func(c *Config) { c.Crawl.MaxFileSizeKB = -1 }, "max_file_size_kb"},
		{"negative retries", func(c *Config) { c.LLM.MaxRetries = -1 }, "max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCachePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Path = "/tmp/x.json"
	p, err := cfg.CachePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.json", p)

	cfg.Cache.Path = ""
	p, err = cfg.CachePath()
	require.NoError(t, err)
	assert.Equal(t, CacheFileName, filepath.Base(p))
}
