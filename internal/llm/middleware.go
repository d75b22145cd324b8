package llm

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"componentgen/internal/llmclient"
)

// Middleware decorates a Completer to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(llmclient.Completer) llmclient.Completer

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.Completer, mws ...Middleware) llmclient.Completer {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.Completer) llmclient.Completer {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next llmclient.Completer
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, system, user)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger uses
// log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.Completer) llmclient.Completer {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.Completer
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	l.log.Debug("provider request", "provider", l.next.Name(), "file", FileFrom(ctx),
		"size", humanize.Bytes(uint64(len(system)+len(user))))
	out, err := l.next.Complete(ctx, system, user)
	if err != nil {
		l.log.Warn("provider error", "provider", l.next.Name(), "file", FileFrom(ctx), "err", err)
		return out, err
	}
	l.log.Debug("provider response", "provider", l.next.Name(), "file", FileFrom(ctx),
		"size", humanize.Bytes(uint64(len(out))), "took", time.Since(start).Round(time.Millisecond))
	return out, nil
}

type ctxKeyFile struct{}

// WithFile tags ctx with the source file being processed, for logs.
func WithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, ctxKeyFile{}, file)
}

// FileFrom returns the file tag stored in the context.
func FileFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyFile{}).(string); ok {
		return v
	}
	return "unknown"
}
