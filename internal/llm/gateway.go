// Package llm routes prompts to a provider with response caching, credential
// and model resolution, rate limiting and optional retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/julianshen/agentwiki/internal/cache"
	"github.com/julianshen/agentwiki/internal/provider"
)

// CredentialResolver looks up the API key for a provider.
type CredentialResolver interface {
	Credential(ctx context.Context, providerName string) (string, error)
}

// Options are the per-call settings.
type Options struct {
	// ProviderName selects the provider; empty means the gateway default.
	ProviderName string
	// Model selects the model; empty means the provider's first listed model.
	Model string
	// Credential is used as-is when set; otherwise the resolver is asked.
	Credential string
	UseCache   bool
}

// Config tunes a Gateway.
type Config struct {
	DefaultProvider   string
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerMinute int
	Completion        *provider.CompletionOptions
}

// Gateway is the single entry point pipeline stages use to talk to an LLM.
type Gateway struct {
	registry   *provider.Registry
	cache      cache.Cache
	creds      CredentialResolver
	cfg        Config
	limiter    *rate.Limiter
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
	mu         sync.Mutex
	modelCache map[string]string
}

// NewGateway creates a gateway. c and creds may be nil: without a cache
// every call goes to the provider, and without a resolver only explicit
// credentials work.
func NewGateway(registry *provider.Registry, c cache.Cache, creds CredentialResolver, cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		registry:   registry,
		cache:      c,
		creds:      creds,
		cfg:        cfg,
		logger:     logger,
		sleep:      sleepCtx,
		modelCache: make(map[string]string),
	}
	if cfg.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return g
}

// Call sends prompt to the selected provider and returns its response.
//
// Resolution order: provider, cache lookup, credential, model, request.
// A cache hit skips everything after it, including credential checks. A
// successful response is written to the cache when UseCache is set; cache
// write failures are logged and never returned.
func (g *Gateway) Call(ctx context.Context, prompt string, opts Options) (string, error) {
	name := opts.ProviderName
	if name == "" {
		name = g.cfg.DefaultProvider
	}
	p, ok := g.registry.Lookup(name)
	if !ok {
		return "", &UnknownProviderError{Name: name, Known: g.registry.Names()}
	}

	log := g.logger.With(zap.String("provider", name), zap.Int("prompt_bytes", len(prompt)))

	if opts.UseCache && g.cache != nil {
		resp, hit, err := g.cache.Get(ctx, prompt)
		if err != nil {
			log.Warn("cache read failed", zap.Error(err))
		} else if hit {
			log.Debug("cache hit")
			return resp, nil
		}
	}

	credential, err := g.resolveCredential(ctx, p, opts.Credential)
	if err != nil {
		return "", err
	}

	model, err := g.resolveModel(ctx, p, opts.Model, credential)
	if err != nil {
		return "", err
	}
	log = log.With(zap.String("model", model))

	resp, err := g.send(ctx, p, model, prompt, credential, log)
	if err != nil {
		return "", &RequestFailedError{Provider: name, Model: model, Err: err}
	}
	log.Info("llm response received", zap.Int("response_bytes", len(resp)))

	if opts.UseCache && g.cache != nil {
		if err := g.cache.Set(ctx, prompt, resp); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

func (g *Gateway) resolveCredential(ctx context.Context, p provider.Provider, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if !provider.RequiresCredential(p) {
		return "", nil
	}
	if g.creds == nil {
		return "", &MissingCredentialError{Provider: p.Name()}
	}
	key, err := g.creds.Credential(ctx, p.Name())
	if err != nil || key == "" {
		return "", &MissingCredentialError{Provider: p.Name(), Err: err}
	}
	return key, nil
}

func (g *Gateway) resolveModel(ctx context.Context, p provider.Provider, explicit, credential string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	g.mu.Lock()
	cached, ok := g.modelCache[p.Name()]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	models, err := p.ListModels(ctx, credential)
	if err != nil {
		return "", &RequestFailedError{Provider: p.Name(), Err: fmt.Errorf("listing models: %w", err)}
	}
	if len(models) == 0 {
		return "", &RequestFailedError{Provider: p.Name(), Err: errors.New("provider lists no models")}
	}

	g.mu.Lock()
	g.modelCache[p.Name()] = models[0].ID
	g.mu.Unlock()
	g.logger.Info("using default model", zap.String("provider", p.Name()), zap.String("model", models[0].ID))
	return models[0].ID, nil
}

// send performs the request with rate limiting and up to MaxRetries
// retries for transient failures, doubling the delay after each attempt.
func (g *Gateway) send(ctx context.Context, p provider.Provider, model, prompt, credential string, log *zap.Logger) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := g.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			log.Warn("retrying llm request", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
			if err := g.sleep(ctx, delay); err != nil {
				return "", err
			}
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		resp, err := p.SendCompletion(ctx, model, prompt, credential, g.cfg.Completion)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return "", lastErr
}

// retryable reports whether err might succeed on a second attempt:
// transport failures, rate limits and server errors.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var reqErr *provider.RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	switch {
	case reqErr.StatusCode == 0:
		return true
	case reqErr.StatusCode == http.StatusTooManyRequests:
		return true
	case reqErr.StatusCode >= 500:
		return true
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
