// cmd/agentwiki/providers.go
package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/cache"
	"github.com/julianshen/agentwiki/internal/config"
	"github.com/julianshen/agentwiki/internal/llm"
	"github.com/julianshen/agentwiki/internal/provider"
	"github.com/julianshen/agentwiki/internal/provider/anthropic"
	"github.com/julianshen/agentwiki/internal/provider/gemini"
	"github.com/julianshen/agentwiki/internal/provider/ollama"
	"github.com/julianshen/agentwiki/internal/provider/openrouter"
)

// newRegistry builds the fixed provider list from the configuration.
func newRegistry(cfg *config.Config, logger *zap.Logger) *provider.Registry {
	return provider.NewRegistry(
		openrouter.New(cfg.Provider.OpenRouter.BaseURL, logger),
		anthropic.New(cfg.Provider.Anthropic.BaseURL, logger),
		gemini.New(cfg.Provider.Gemini.BaseURL, logger),
		ollama.New(cfg.Provider.Ollama.BaseURL, logger),
	)
}

// openCache returns the configured response cache, or nil when caching is
// disabled.
func openCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	path, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	return cache.Open(cache.Options{
		Backend:       cfg.Cache.Backend,
		Path:          path,
		MemoryEntries: cfg.Cache.MemoryEntries,
	}, logger)
}

// newGateway wires registry, cache and credentials into an LLM gateway.
func newGateway(cfg *config.Config, reg *provider.Registry, c cache.Cache, logger *zap.Logger) *llm.Gateway {
	return llm.NewGateway(reg, c, config.NewCredentialStore(cfg), llm.Config{
		DefaultProvider:   cfg.Provider.Default,
		MaxRetries:        cfg.LLM.MaxRetries,
		RetryBackoff:      time.Duration(cfg.LLM.RetryBackoffMS) * time.Millisecond,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}, logger)
}
