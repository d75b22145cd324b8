package llm

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"componentgen/internal/llmclient"
)

// Retry retries Complete up to maxAttempts with exponential backoff starting
// at baseDelay. Only retryable ProviderErrors are retried; a provider
// RetryAfter longer than the backoff wins. Context cancellation stops
// immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.Completer) llmclient.Completer {
		return &retrying{next: next, max: maxAttempts, base: baseDelay, sleep: sleepCtx}
	}
}

type retrying struct {
	next  llmclient.Completer
	max   int
	base  time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Complete(ctx context.Context, system, user string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Complete(ctx, system, user)
		if err == nil {
			return out, nil
		}
		last = err
		wait, ok := retryDelay(err, r.base*time.Duration(1<<i))
		if !ok || i == r.max-1 {
			break
		}
		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", last
}

func retryDelay(err error, backoff time.Duration) (time.Duration, bool) {
	var perm *llmclient.PermanentError
	if errors.As(err, &perm) {
		return 0, false
	}
	var pe *llmclient.ProviderError
	if !errors.As(err, &pe) || !pe.Retryable() {
		return 0, false
	}
	if pe.RetryAfter > backoff {
		return pe.RetryAfter, true
	}
	return backoff, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
