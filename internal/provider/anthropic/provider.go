// Package anthropic implements the provider interface for the Anthropic
// Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/provider"
)

// Name is the registry name of this provider.
const Name = "anthropic"

// DefaultBaseURL is the public Anthropic API root.
const DefaultBaseURL = "https://api.anthropic.com"

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 8192
)

// Provider implements provider.Provider for the Anthropic API.
type Provider struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a new Anthropic provider.
func New(baseURL string, logger *zap.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return Name }

// apiRequest is the request body sent to the Anthropic API.
type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Stream      bool         `json:"stream"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *Provider) setHeaders(req *http.Request, credential string) {
	req.Header.Set("x-api-key", credential)
	req.Header.Set("anthropic-version", apiVersion)
}

// ListModels returns the models visible to the key, sorted by ID.
func (p *Provider) ListModels(ctx context.Context, credential string) ([]provider.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models?limit=1000", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	p.setHeaders(req, credential)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, provider.TransportError(Name, "listing models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.StatusError(Name, resp)
	}

	var list struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	models := make([]provider.Model, 0, len(list.Data))
	for _, m := range list.Data {
		models = append(models, provider.Model{ID: m.ID, DisplayName: m.DisplayName})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// SendCompletion streams a message and returns the joined text deltas.
func (p *Provider) SendCompletion(ctx context.Context, model, prompt, credential string, opts *provider.CompletionOptions) (string, error) {
	apiReq := apiRequest{
		Model:     model,
		MaxTokens: opts.MaxTokensOr(defaultMaxTokens),
		Stream:    true,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	}
	if opts != nil && opts.Temperature != 0 {
		temp := opts.Temperature
		apiReq.Temperature = &temp
	}
	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.setHeaders(httpReq, credential)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", provider.TransportError(Name, "sending request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", provider.StatusError(Name, resp)
	}

	var sb strings.Builder
	scanner := provider.NewSSEScanner(resp.Body)
	for scanner.Next() {
		evt := scanner.Event()
		switch evt.Event {
		case "content_block_delta":
			text, err := parseTextDelta(evt.Data)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		case "error":
			return "", parseStreamError(evt.Data)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", provider.TransportError(Name, "reading stream", err)
	}

	if sb.Len() == 0 {
		p.logger.Warn("provider returned empty response", zap.String("provider", Name), zap.String("model", model))
	}
	return sb.String(), nil
}

func parseTextDelta(data string) (string, error) {
	var parsed struct {
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return "", fmt.Errorf("parsing content_block_delta: %w", err)
	}
	if parsed.Delta.Type != "text_delta" {
		return "", nil
	}
	return parsed.Delta.Text, nil
}

func parseStreamError(data string) error {
	var parsed struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil || parsed.Error.Message == "" {
		return &provider.RequestError{Provider: Name, Message: data}
	}
	return &provider.RequestError{
		Provider: Name,
		Message:  parsed.Error.Type + ": " + parsed.Error.Message,
	}
}
