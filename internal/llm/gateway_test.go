package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/julianshen/agentwiki/internal/provider"
)

type fakeProvider struct {
	name     string
	models   []provider.Model
	response string
	errs     []error

	mu          sync.Mutex
	sends       int
	lists       int
	lastModel   string
	lastKey     string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ListModels(context.Context, string) ([]provider.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.models, nil
}

func (f *fakeProvider) SendCompletion(_ context.Context, model, _, credential string, _ *provider.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	f.lastModel = model
	f.lastKey = credential
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.response, nil
}

type localProvider struct{ *fakeProvider }

func (localProvider) RequiresCredential() bool { return false }

type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
	setErr  error
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, p string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[p]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, p, r string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[p] = r
	return nil
}

func (c *mapCache) Close() error { return nil }

type staticCreds map[string]string

func (s staticCreds) Credential(_ context.Context, name string) (string, error) {
	if k, ok := s[name]; ok {
		return k, nil
	}
	return "", errors.New("not configured")
}

func newFake() *fakeProvider {
	return &fakeProvider{
		name:     "openrouter",
		models:   []provider.Model{{ID: "free/model"}, {ID: "paid/model"}},
		response: "answer",
	}
}

func TestCallUnknownProvider(t *testing.T) {
	g := NewGateway(provider.NewRegistry(newFake()), nil, nil, Config{}, zaptest.NewLogger(t))

	_, err := g.Call(context.Background(), "p", Options{ProviderName: "nope"})
	var upe *UnknownProviderError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "nope", upe.Name)
	assert.Equal(t, []string{"openrouter"}, upe.Known)
}

func TestCallDefaultProviderAndModel(t *testing.T) {
	fake := newFake()
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{"openrouter": "sk-1"},
		Config{DefaultProvider: "openrouter"}, zaptest.NewLogger(t))

	resp, err := g.Call(context.Background(), "p", Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp)
	assert.Equal(t, "free/model", fake.lastModel, "first listed model")
	assert.Equal(t, "sk-1", fake.lastKey)

	_, err = g.Call(context.Background(), "p2", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.lists, "model resolution is remembered")
}

func TestCallExplicitCredentialAndModel(t *testing.T) {
	fake := newFake()
	g := NewGateway(provider.NewRegistry(fake), nil, nil, Config{}, nil)

	_, err := g.Call(context.Background(), "p", Options{ProviderName: "openrouter", Model: "paid/model", Credential: "explicit"})
	require.NoError(t, err)
	assert.Equal(t, "paid/model", fake.lastModel)
	assert.Equal(t, "explicit", fake.lastKey)
	assert.Zero(t, fake.lists)
}

func TestCallMissingCredential(t *testing.T) {
	fake := newFake()
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{}, Config{DefaultProvider: "openrouter"}, nil)

	_, err := g.Call(context.Background(), "p", Options{})
	var mce *MissingCredentialError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "openrouter", mce.Provider)
	assert.Zero(t, fake.sends)
}

func TestCallLocalProviderNeedsNoCredential(t *testing.T) {
	local := localProvider{&fakeProvider{name: "ollama", models: []provider.Model{{ID: "llama3"}}, response: "hi"}}
	g := NewGateway(provider.NewRegistry(local), nil, nil, Config{}, nil)

	resp, err := g.Call(context.Background(), "p", Options{ProviderName: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp)
	assert.Empty(t, local.lastKey)
}

func TestCallCacheHitSkipsCredentialAndProvider(t *testing.T) {
	fake := newFake()
	c := newMapCache()
	c.entries["p"] = "cached"
	g := NewGateway(provider.NewRegistry(fake), c, nil, Config{DefaultProvider: "openrouter"}, nil)

	resp, err := g.Call(context.Background(), "p", Options{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, "cached", resp)
	assert.Zero(t, fake.sends)
}

func TestCallCacheDisabledIgnoresCache(t *testing.T) {
	fake := newFake()
	c := newMapCache()
	c.entries["p"] = "cached"
	g := NewGateway(provider.NewRegistry(fake), c, staticCreds{"openrouter": "k"}, Config{DefaultProvider: "openrouter"}, nil)

	resp, err := g.Call(context.Background(), "p", Options{UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp)
	assert.Equal(t, "cached", c.entries["p"], "cache untouched")
}

func TestCallWritesCacheOnSuccess(t *testing.T) {
	fake := newFake()
	c := newMapCache()
	g := NewGateway(provider.NewRegistry(fake), c, staticCreds{"openrouter": "k"}, Config{DefaultProvider: "openrouter"}, nil)

	_, err := g.Call(context.Background(), "p", Options{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, "answer", c.entries["p"])

	_, err = g.Call(context.Background(), "p", Options{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.sends)
}

func TestCallCacheWriteFailureIsNotFatal(t *testing.T) {
	c := newMapCache()
	c.setErr = errors.New("read-only filesystem")
	core, logs := observer.New(zap.WarnLevel)
	g := NewGateway(provider.NewRegistry(newFake()), c, staticCreds{"openrouter": "k"},
		Config{DefaultProvider: "openrouter"}, zap.New(core))

	resp, err := g.Call(context.Background(), "p", Options{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp)
	assert.Equal(t, 1, logs.FilterMessage("cache write failed").Len())
}

func TestCallProviderFailureWrapped(t *testing.T) {
	fake := newFake()
	upstream := &provider.RequestError{Provider: "openrouter", StatusCode: 401, Message: "bad key"}
	fake.errs = []error{upstream}
	c := newMapCache()
	g := NewGateway(provider.NewRegistry(fake), c, staticCreds{"openrouter": "k"}, Config{DefaultProvider: "openrouter"}, nil)

	_, err := g.Call(context.Background(), "p", Options{UseCache: true})
	var rfe *RequestFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Contains(t, err.Error(), "bad key")
	assert.ErrorIs(t, err, upstream)
	assert.Empty(t, c.entries, "failures are not cached")
}

func TestCallRetriesTransientFailures(t *testing.T) {
	fake := newFake()
	fake.errs = []error{
		&provider.RequestError{Provider: "openrouter", StatusCode: http.StatusTooManyRequests, Message: "slow down"},
		&provider.RequestError{Provider: "openrouter", StatusCode: http.StatusBadGateway, Message: "upstream"},
	}
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{"openrouter": "k"},
		Config{DefaultProvider: "openrouter", MaxRetries: 2, RetryBackoff: time.Millisecond}, nil)
	var delays []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	resp, err := g.Call(context.Background(), "p", Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp)
	assert.Equal(t, 3, fake.sends)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestCallDoesNotRetryClientErrors(t *testing.T) {
	fake := newFake()
	fake.errs = []error{&provider.RequestError{Provider: "openrouter", StatusCode: http.StatusUnauthorized, Message: "no"}}
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{"openrouter": "k"},
		Config{DefaultProvider: "openrouter", MaxRetries: 3}, nil)

	_, err := g.Call(context.Background(), "p", Options{})
	require.Error(t, err)
	assert.Equal(t, 1, fake.sends)
}

func TestCallNoRetryByDefault(t *testing.T) {
	fake := newFake()
	fake.errs = []error{&provider.RequestError{Provider: "openrouter", StatusCode: http.StatusBadGateway, Message: "x"}}
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{"openrouter": "k"}, Config{DefaultProvider: "openrouter"}, nil)

	_, err := g.Call(context.Background(), "p", Options{})
	require.Error(t, err)
	assert.Equal(t, 1, fake.sends)
}

func TestCallNoModelsAvailable(t *testing.T) {
	fake := newFake()
	fake.models = nil
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{"openrouter": "k"}, Config{DefaultProvider: "openrouter"}, nil)

	_, err := g.Call(context.Background(), "p", Options{})
	var rfe *RequestFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Contains(t, err.Error(), "no models")
}

func TestCallRateLimiterHonoursCancellation(t *testing.T) {
	fake := newFake()
	g := NewGateway(provider.NewRegistry(fake), nil, staticCreds{"openrouter": "k"},
		Config{DefaultProvider: "openrouter", RequestsPerMinute: 1}, nil)

	_, err := g.Call(context.Background(), "first", Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Call(ctx, "second", Options{})
	require.Error(t, err)
	assert.Equal(t, 1, fake.sends)
}
