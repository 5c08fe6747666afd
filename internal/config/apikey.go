package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name API keys are stored under in the OS
// secret store.
const KeyringService = "agentwiki"

// ResolveAPIKey resolves an API key based on the given source.
// Supported sources: "env" (from environment variable), "config" (from config value),
// "keyring" (from the OS secret store under account, falling back to env).
func ResolveAPIKey(source, configValue, envVar, account string) (string, error) {
	switch source {
	case "keyring":
		key, err := keyring.Get(KeyringService, account)
		if err == nil && key != "" {
			return key, nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			// Headless machines often have no secret service; env still works.
			if envKey, envErr := resolveFromEnv(envVar); envErr == nil {
				return envKey, nil
			}
			return "", fmt.Errorf("reading keyring: %w", err)
		}
		return resolveFromEnv(envVar)
	case "env":
		return resolveFromEnv(envVar)
	case "config":
		if configValue == "" {
			return "", fmt.Errorf("api_key_source is 'config' but no api_key value provided")
		}
		return configValue, nil
	default:
		return "", fmt.Errorf("unknown api_key_source: %q", source)
	}
}

func resolveFromEnv(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable name specified")
	}
	val := os.Getenv(envVar)
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return val, nil
}

// StoreAPIKey saves key for the named provider in the OS secret store.
func StoreAPIKey(provider, key string) error {
	if key == "" {
		return errors.New("refusing to store an empty API key")
	}
	if err := keyring.Set(KeyringService, provider, key); err != nil {
		return fmt.Errorf("storing %s key: %w", provider, err)
	}
	return nil
}

// DeleteAPIKey removes the stored key for the named provider. Deleting a key
// that was never stored is not an error.
func DeleteAPIKey(provider string) error {
	err := keyring.Delete(KeyringService, provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting %s key: %w", provider, err)
	}
	return nil
}

// EnvVar returns the environment variable consulted for a provider's key.
func EnvVar(provider string) string {
	switch provider {
	case "openrouter":
		return "OPENROUTER_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// CredentialStore resolves provider credentials from the configuration,
// the OS keyring and the environment.
type CredentialStore struct {
	cfg *Config
}

// NewCredentialStore returns a CredentialStore backed by cfg.
func NewCredentialStore(cfg *Config) *CredentialStore {
	return &CredentialStore{cfg: cfg}
}

// Credential returns the API key for the named provider.
func (s *CredentialStore) Credential(_ context.Context, provider string) (string, error) {
	var hosted HostedProviderConfig
	switch provider {
	case "openrouter":
		hosted = s.cfg.Provider.OpenRouter
	case "anthropic":
		hosted = s.cfg.Provider.Anthropic
	case "gemini":
		hosted = s.cfg.Provider.Gemini
	default:
		return "", fmt.Errorf("no credential settings for provider %q", provider)
	}
	source := hosted.APIKeySource
	if source == "" {
		source = "keyring"
	}
	return ResolveAPIKey(source, hosted.APIKey, EnvVar(provider), provider)
}
