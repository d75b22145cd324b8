package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentgen/internal/config"
	"componentgen/internal/llm"
	"componentgen/internal/llmclient"
)

func TestWrapProvider_RetriesWaitForRateLimit(t *testing.T) {
	attempts := 0
	fake := &llm.FakeClient{Fn: func(string, string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &llmclient.ProviderError{Provider: "fake", StatusCode: 429, Message: "slow down"}
		}
		return "ok", nil
	}}
	d := config.Default().Docs
	d.Retries = 3
	d.RetryBase = time.Millisecond
	d.RateLimit = 10
	d.Burst = 1

	var buf bytes.Buffer
	cli := wrapProvider(fake, d, log.New(&buf))

	start := time.Now()
	out, err := cli.Complete(context.Background(), "s", "u")
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, attempts)
	assert.True(t, elapsed >= 150*time.Millisecond, "each attempt takes a token, elapsed %s", elapsed)
	assert.Equal(t, 2, strings.Count(buf.String(), "provider error"), "every failed attempt is logged")
}
