package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ChatClient calls an OpenAI-compatible Chat Completions endpoint (Groq,
// DashScope compatible mode).
type ChatClient struct {
	http     *http.Client
	provider string
	apiKey   string
	model    string
	baseURL  string
}

// NewChatClient creates a chat client for the given endpoint.
func NewChatClient(provider, baseURL, apiKey, model string) *ChatClient {
	return &ChatClient{
		http:     &http.Client{Timeout: 120 * time.Second},
		provider: provider,
		apiKey:   apiKey,
		model:    model,
		baseURL:  baseURL,
	}
}

func (c *ChatClient) Name() string { return c.provider + ":" + c.model }
func (c *ChatClient) Close() error { return nil }

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a system + user message pair and joins the returned choices.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	body := chatReq{Model: c.model}
	if strings.TrimSpace(systemPrompt) != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: userMessage})
	b, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "encode chat request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		pe := &ProviderError{Provider: c.Name(), StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		if h, ok := parseRateLimitHeaders(resp.Header); ok {
			pe.RetryAfter = h.NextWait()
		}
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(pe.Message, "context_length_exceeded") {
			return "", NewPermanentError(pe)
		}
		return "", pe
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode chat response")
	}
	var sb strings.Builder
	for _, ch := range out.Choices {
		sb.WriteString(ch.Message.Content)
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
