// Package openrouter implements the provider interface against the
// OpenRouter OpenAI-compatible API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/provider"
)

// Name is the registry name of this provider.
const Name = "openrouter"

// DefaultBaseURL is the public OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Provider talks to OpenRouter's chat completions and model listing APIs.
type Provider struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a new OpenRouter provider. An empty baseURL selects the
// public endpoint.
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

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

type modelList struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
		Pricing       struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

func (p *Provider) setHeaders(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("HTTP-Referer", "https://github.com/julianshen/agentwiki")
	req.Header.Set("X-Title", "agentwiki")
}

// ListModels returns all models sorted by combined prompt and completion
// price, cheapest first. Ties keep ID order.
func (p *Provider) ListModels(ctx context.Context, credential string) ([]provider.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
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

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	models := make([]provider.Model, 0, len(list.Data))
	for _, m := range list.Data {
		models = append(models, provider.Model{
			ID:            m.ID,
			DisplayName:   m.Name,
			ContextLength: m.ContextLength,
			Pricing: &provider.Pricing{
				Prompt:     parsePrice(m.Pricing.Prompt),
				Completion: parsePrice(m.Pricing.Completion),
			},
		})
	}
	sort.SliceStable(models, func(i, j int) bool {
		ti, tj := models[i].Pricing.Total(), models[j].Pricing.Total()
		if ti != tj {
			return ti < tj
		}
		return models[i].ID < models[j].ID
	})
	return models, nil
}

// parsePrice reads OpenRouter's decimal price strings. Unparseable prices
// ("-1" for variable pricing is common) sort as free.
func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// SendCompletion streams a chat completion and returns the joined text.
func (p *Provider) SendCompletion(ctx context.Context, model, prompt, credential string, opts *provider.CompletionOptions) (string, error) {
	apiReq := apiRequest{
		Model:     model,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
		MaxTokens: opts.MaxTokensOr(0),
		Stream:    true,
	}
	if opts != nil && opts.Temperature != 0 {
		temp := opts.Temperature
		apiReq.Temperature = &temp
	}
	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
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
	s := provider.NewSSEScanner(resp.Body)
	for s.Next() {
		data := s.Event().Data
		if data == "[DONE]" {
			break
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("parsing chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", &provider.RequestError{Provider: Name, Message: chunk.Error.Message}
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content != nil {
				sb.WriteString(*c.Delta.Content)
			}
		}
	}
	if err := s.Err(); err != nil {
		return "", provider.TransportError(Name, "reading stream", err)
	}

	if sb.Len() == 0 {
		p.logger.Warn("provider returned empty response", zap.String("provider", Name), zap.String("model", model))
	}
	return sb.String(), nil
}
