// Package ollama implements the provider interface for a local Ollama
// server. No API key is needed.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/provider"
)

// Name is the registry name of this provider.
const Name = "ollama"

// DefaultBaseURL is where a local Ollama listens by default.
const DefaultBaseURL = "http://localhost:11434"

// Provider implements provider.Provider for Ollama.
type Provider struct {
	baseURL string
	client  *http.Client
	meta    *Client
	logger  *zap.Logger
}

// New creates a new Ollama provider.
func New(baseURL string, logger *zap.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Provider{
		baseURL: baseURL,
		client:  &http.Client{},
		meta:    NewClient(baseURL),
		logger:  logger,
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return Name }

// RequiresCredential implements provider.CredentialOptional.
func (p *Provider) RequiresCredential() bool { return false }

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *apiOptions  `json:"options,omitempty"`
}

type apiOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamChunk is one NDJSON line of a streaming /api/chat response.
type streamChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// ListModels returns installed models sorted by name. The credential is
// ignored.
func (p *Provider) ListModels(ctx context.Context, _ string) ([]provider.Model, error) {
	infos, err := p.meta.ListModels(ctx)
	if err != nil {
		return nil, provider.TransportError(Name, "listing models", err)
	}
	models := make([]provider.Model, 0, len(infos))
	for _, m := range infos {
		models = append(models, provider.Model{ID: m.Name, DisplayName: m.Name})
	}
	return models, nil
}

// SendCompletion streams /api/chat and returns the joined message content.
func (p *Provider) SendCompletion(ctx context.Context, model, prompt, _ string, opts *provider.CompletionOptions) (string, error) {
	apiReq := apiRequest{
		Model:    model,
		Messages: []apiMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	}
	if opts != nil && (opts.MaxTokens > 0 || opts.Temperature != 0) {
		o := &apiOptions{NumPredict: opts.MaxTokens}
		if opts.Temperature != 0 {
			temp := opts.Temperature
			o.Temperature = &temp
		}
		apiReq.Options = o
	}
	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", provider.TransportError(Name, "sending request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", provider.StatusError(Name, resp)
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk streamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("parsing chunk: %w", err)
		}
		if chunk.Error != "" {
			return "", &provider.RequestError{Provider: Name, Message: chunk.Error}
		}
		sb.WriteString(chunk.Message.Content)
		if chunk.Done {
			break
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
