package llm

import (
	"context"
	"strings"
	"sync"
)

// FakeClient returns deterministic output for offline runs and tests.
// When Fn is nil, the reply is a small markdown page titled with the file
// tagged on the context, or the first line of the user message.
type FakeClient struct {
	Fn func(system, user string) (string, error)

	mu    sync.Mutex
	calls []string
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, user)
	f.mu.Unlock()
	if f.Fn != nil {
		return f.Fn(system, user)
	}
	title := FileFrom(ctx)
	if title == "unknown" {
		title = strings.TrimSpace(strings.SplitN(user, "\n", 2)[0])
	}
	return "# " + title + "\n\n> Generated offline.\n", nil
}

// Calls returns the user messages received so far.
func (f *FakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
