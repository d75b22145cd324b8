package llm

import (
	"context"
	"strings"

	"componentgen/internal/llmclient"
)

// NewProvider resolves spec to a Completer. "fake" yields a FakeClient; every
// other name goes through llmclient.New.
func NewProvider(ctx context.Context, spec llmclient.Spec) (llmclient.Completer, error) {
	if strings.EqualFold(strings.TrimSpace(spec.Provider), "fake") {
		return NewFakeClient(), nil
	}
	return llmclient.New(ctx, spec)
}
