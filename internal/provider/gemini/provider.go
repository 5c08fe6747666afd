// Package gemini implements the provider interface on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/julianshen/agentwiki/internal/provider"
)

// Name is the registry name of this provider.
const Name = "gemini"

// Provider calls the Gemini API through genai.Client.
type Provider struct {
	baseURL string
	logger  *zap.Logger
}

// New creates a Gemini provider. baseURL overrides the API endpoint and is
// normally empty.
func New(baseURL string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{baseURL: baseURL, logger: logger}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return Name }

func (p *Provider) client(ctx context.Context, credential string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, provider.TransportError(Name, "creating client", err)
	}
	return cli, nil
}

// ListModels returns models that support content generation, sorted by ID.
func (p *Provider) ListModels(ctx context.Context, credential string) ([]provider.Model, error) {
	cli, err := p.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	var models []provider.Model
	for m, err := range cli.Models.All(ctx) {
		if err != nil {
			return nil, requestError("listing models", err)
		}
		if !supportsGenerate(m) {
			continue
		}
		models = append(models, provider.Model{
			ID:            strings.TrimPrefix(m.Name, "models/"),
			DisplayName:   m.DisplayName,
			ContextLength: int(m.InputTokenLimit),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

func supportsGenerate(m *genai.Model) bool {
	if len(m.SupportedActions) == 0 {
		return true
	}
	for _, a := range m.SupportedActions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}

// SendCompletion generates content for prompt and joins the text parts of
// the first candidate.
func (p *Provider) SendCompletion(ctx context.Context, model, prompt, credential string, opts *provider.CompletionOptions) (string, error) {
	cli, err := p.client(ctx, credential)
	if err != nil {
		return "", err
	}

	var genCfg *genai.GenerateContentConfig
	if opts != nil && (opts.MaxTokens > 0 || opts.Temperature != 0) {
		genCfg = &genai.GenerateContentConfig{}
		if opts.MaxTokens > 0 {
			genCfg.MaxOutputTokens = int32(opts.MaxTokens)
		}
		if opts.Temperature != 0 {
			temp := float32(opts.Temperature)
			genCfg.Temperature = &temp
		}
	}

	resp, err := cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}},
		genCfg,
	)
	if err != nil {
		return "", requestError("generating content", err)
	}

	text := candidateText(resp)
	if text == "" {
		p.logger.Warn("provider returned empty response", zap.String("provider", Name), zap.String("model", model))
	}
	return text, nil
}

// requestError keeps the HTTP status of API errors so the gateway does not
// retry requests the server rejected.
func requestError(what string, err error) *provider.RequestError {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return provider.TransportError(Name, what, err)
	}
	msg := apiErr.Message
	if msg == "" {
		msg = what
	}
	return &provider.RequestError{Provider: Name, StatusCode: apiErr.Code, Message: msg, Err: err}
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
