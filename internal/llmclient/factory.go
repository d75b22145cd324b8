package llmclient

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// Spec selects and configures a provider.
type Spec struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

type providerDefaults struct {
	model   string
	baseURL string
	keyEnv  string
}

var defaults = map[string]providerDefaults{
	"gemini":    {model: "gemini-2.5-flash", keyEnv: "GEMINI_API_KEY"},
	"groq":      {model: "llama-3.3-70b-versatile", baseURL: "https://api.groq.com/openai/v1/chat/completions", keyEnv: "GROQ_API_KEY"},
	"dashscope": {model: "qwen-flash", baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions", keyEnv: "DASHSCOPE_API_KEY"},
}

// Providers lists the provider names New accepts besides "fake".
func Providers() []string {
	return []string{"dashscope", "gemini", "groq"}
}

// ErrMissingAPIKey is returned when neither Spec.APIKey nor the provider's
// environment variable is set.
var ErrMissingAPIKey = errors.New("llmclient: api key is not set")

// New builds the client named by spec.Provider. Empty fields fall back to the
// provider defaults; the API key falls back to the provider's env variable.
func New(ctx context.Context, spec Spec) (Completer, error) {
	name := strings.ToLower(strings.TrimSpace(spec.Provider))
	d, ok := defaults[name]
	if !ok {
		return nil, errors.WithHintf(errors.Newf("llmclient: unknown provider %q", spec.Provider),
			"supported providers: %s", strings.Join(Providers(), ", "))
	}
	model := firstNonEmpty(spec.Model, d.model)
	key := firstNonEmpty(spec.APIKey, os.Getenv(d.keyEnv))
	if key == "" {
		return nil, errors.WithHintf(ErrMissingAPIKey, "set %s", d.keyEnv)
	}
	switch name {
	case "gemini":
		return NewGeminiClient(ctx, key, model)
	default:
		return NewChatClient(name, firstNonEmpty(spec.BaseURL, d.baseURL), key, model), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
