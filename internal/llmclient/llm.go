package llmclient

import "context"

// Completer is a generative text provider: one system prompt plus one user
// message in, free-form text out.
type Completer interface {
	Name() string
	Close() error
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
