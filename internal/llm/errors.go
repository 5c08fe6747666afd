package llm

import (
	"fmt"
	"strings"
)

// UnknownProviderError is returned when no registered provider has the
// requested name.
type UnknownProviderError struct {
	Name  string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown LLM provider %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

// MissingCredentialError is returned when a provider needs an API key and
// none was given or could be resolved.
type MissingCredentialError struct {
	Provider string
	Err      error
}

func (e *MissingCredentialError) Error() string {
	msg := fmt.Sprintf("no API key for provider %q; run `agentwiki auth set --provider %s` or set the environment variable", e.Provider, e.Provider)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingCredentialError) Unwrap() error { return e.Err }

// RequestFailedError wraps any failure reported by the provider while
// resolving a model or sending a completion.
type RequestFailedError struct {
	Provider string
	Model    string
	Err      error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("LLM request failed: %v", e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }
