package llmclient

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, timeouts, logging) are applied via middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, errors.Wrap(err, "gemini: new client")
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// Complete sends the system prompt as system instruction and the user message
// as the only user turn, returning the concatenated text parts.
func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(systemPrompt) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userMessage}}}},
		cfg,
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: g.Name(), StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", err
	}
	// Only the first candidate carries the answer.
	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
