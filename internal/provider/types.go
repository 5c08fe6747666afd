// Package provider defines the capability every LLM backend offers to the
// gateway: list models and turn one prompt into one completion.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Provider is a named LLM backend.
type Provider interface {
	Name() string
	// ListModels returns the provider's models in a deterministic order.
	ListModels(ctx context.Context, credential string) ([]Model, error)
	// SendCompletion sends prompt as a single user message and returns the
	// aggregated response text. A successful but empty response yields "".
	SendCompletion(ctx context.Context, model, prompt, credential string, opts *CompletionOptions) (string, error)
}

// CredentialOptional is implemented by providers that may run without an
// API key, such as a local model server.
type CredentialOptional interface {
	RequiresCredential() bool
}

// RequiresCredential reports whether calls to p need a resolved credential.
func RequiresCredential(p Provider) bool {
	if co, ok := p.(CredentialOptional); ok {
		return co.RequiresCredential()
	}
	return true
}

// CompletionOptions tunes a single completion request. The zero value uses
// provider defaults.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// MaxTokensOr returns the configured token limit or def.
func (o *CompletionOptions) MaxTokensOr(def int) int {
	if o == nil || o.MaxTokens <= 0 {
		return def
	}
	return o.MaxTokens
}

// Pricing is the per-token price in USD.
type Pricing struct {
	Prompt     float64
	Completion float64
}

// Total is the combined prompt and completion price per token.
func (p *Pricing) Total() float64 {
	if p == nil {
		return 0
	}
	return p.Prompt + p.Completion
}

// Model describes one model a provider can serve.
type Model struct {
	ID            string
	DisplayName   string
	ContextLength int
	Pricing       *Pricing
}

// RequestError reports a failed provider call with the upstream message.
type RequestError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusError builds a RequestError from a non-2xx HTTP response. The body
// is read and included verbatim.
func StatusError(provider string, resp *http.Response) *RequestError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &RequestError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// TransportError wraps a failure that happened before any response arrived.
func TransportError(provider, what string, err error) *RequestError {
	return &RequestError{Provider: provider, Message: what, Err: err}
}
